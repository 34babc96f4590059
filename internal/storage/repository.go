package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Handles

func (r *Repository) SaveHandle(key, path string) error {
	h := Handle{Key: key, Path: path}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&h).Error
}

// GetHandle returns the saved path for key. ok is false when nothing is saved.
func (r *Repository) GetHandle(key string) (path string, ok bool, err error) {
	var h Handle
	err = r.db.Where(&Handle{Key: key}).First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h.Path, true, nil
}

func (r *Repository) ClearHandle(key string) error {
	return r.db.Delete(&Handle{Key: key}).Error
}

// Preferences

func (r *Repository) SetPreference(key, value string) error {
	p := Preference{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&p).Error
}

// GetPreference returns the stored value, or fallback when none is stored.
func (r *Repository) GetPreference(key, fallback string) (string, error) {
	var p Preference
	err := r.db.Where(&Preference{Key: key}).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return p.Value, nil
}

func (r *Repository) Preferences() ([]Preference, error) {
	var prefs []Preference
	err := r.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&prefs).Error
	return prefs, err
}
