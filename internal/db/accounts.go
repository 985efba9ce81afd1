package db

import (
	"github.com/melitools/melisync/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

func SaveAccount(a *model.Account) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "nickname"}},
		UpdateAll: true,
	}).Create(a).Error)
}

func GetAccount(nickname string) (*model.Account, error) {
	var a model.Account
	if err := db.First(&a, "nickname = ?", nickname).Error; err != nil {
		return nil, errors.Wrapf(err, "failed find account %q", nickname)
	}
	return &a, nil
}

func ListAccounts() ([]model.Account, error) {
	var accounts []model.Account
	err := db.Order("nickname ASC").Find(&accounts).Error
	return accounts, errors.WithStack(err)
}

func DeleteAccount(nickname string) error {
	return errors.WithStack(db.Delete(&model.Account{}, "nickname = ?", nickname).Error)
}
