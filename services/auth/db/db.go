package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/medchat-io/medchat/pkg/koanf"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	Orm *gorm.DB
}

func New(cnf koanf.Postgres, logger *zap.Logger) (Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cnf.Host, cnf.Port, cnf.Username, cnf.Password, cnf.DB, cnf.SSLMode)

	orm, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("failed to open postgres connection", zap.Error(err))
		return Database{}, err
	}

	return Database{Orm: orm}, nil
}

func (db Database) Initialize() error {
	return db.Orm.AutoMigrate(
		&ApiKey{},
		&User{},
	)
}

func (db Database) GetUsers() ([]User, error) {
	var s []User
	tx := db.Orm.Model(&User{}).
		Order("updated_at desc").
		Find(&s)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return s, nil
}

func (db Database) GetUser(id string) (*User, error) {
	var s User
	tx := db.Orm.Model(&User{}).
		Where("id = ?", id).
		First(&s)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &s, nil
}

func (db Database) GetUserByEmail(email string) (*User, error) {
	var s User
	tx := db.Orm.Model(&User{}).
		Where("email = ?", email).
		First(&s)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &s, nil
}

func (db Database) GetUserByExternalID(id string) (*User, error) {
	var s User
	tx := db.Orm.Model(&User{}).
		Where("external_id = ?", id).
		First(&s)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &s, nil
}

func (db Database) GetFirstUser() (*User, error) {
	var user User
	tx := db.Orm.Model(&User{}).
		Order("id asc").
		First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &user, nil
}

func (db Database) GetUsersCount() (int64, error) {
	var count int64
	tx := db.Orm.Model(&User{}).
		Count(&count)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return count, nil
}

func (db Database) CreateUser(user *User) error {
	tx := db.Orm.Create(user)
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}

func (db Database) DeleteUser(id uint) error {
	tx := db.Orm.
		Where("id = ?", id).
		Delete(&User{})
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}

func (db Database) UpdateUserLastLoginWithExternalID(id string, lastLogin time.Time) error {
	tx := db.Orm.Model(&User{}).
		Where("external_id = ?", id).
		Update("last_login", lastLogin)
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}

func (db Database) UpdateUserPasswordHash(id uint, hash string) error {
	tx := db.Orm.Model(&User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}

func (db Database) AddApiKey(key *ApiKey) error {
	tx := db.Orm.Create(key)
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}

func (db Database) ListApiKeysForUser(userId string) ([]ApiKey, error) {
	var s []ApiKey
	tx := db.Orm.Model(&ApiKey{}).
		Where("creator_user_id", userId).
		Order("created_at desc").
		Find(&s)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return s, nil
}

func (db Database) CountApiKeysForUser(userID string) (int64, error) {
	var s int64
	tx := db.Orm.Model(&ApiKey{}).
		Where("creator_user_id", userID).
		Where("is_active", true).
		Count(&s)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return s, nil
}

func (db Database) DeleteAPIKey(id uint64) error {
	tx := db.Orm.Model(&ApiKey{}).
		Where("id = ?", id).
		Delete(&ApiKey{})
	if tx.Error != nil {
		return tx.Error
	}
	return nil
}
