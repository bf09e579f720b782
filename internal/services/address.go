package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/sdpublication/internal/models"
)

// AddressInput carries the editable address fields.
type AddressInput struct {
	Title    string `json:"title"`
	Address  string `json:"address"`
	State    string `json:"state"`
	City     string `json:"city"`
	Pincode  string `json:"pincode"`
	Landmark string `json:"landmark"`
	Phone    string `json:"phone"`
}

// Validate checks the fields every address needs.
func (in AddressInput) Validate() error {
	if strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.City) == "" ||
		strings.TrimSpace(in.State) == "" || strings.TrimSpace(in.Pincode) == "" {
		return invalid("address, city, state and pincode are required")
	}
	return nil
}

// AddressService keeps exactly one default address per user once any exists.
type AddressService struct {
	db *gorm.DB
}

// NewAddressService constructs AddressService.
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// List returns the user's addresses, newest first.
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	var addresses []models.Address
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// Add stores a new address and makes it the default.
func (s *AddressService) Add(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	address := models.Address{
		UserID:    userID,
		Title:     in.Title,
		Address:   in.Address,
		State:     in.State,
		City:      in.City,
		Pincode:   in.Pincode,
		Landmark:  in.Landmark,
		Phone:     in.Phone,
		IsDefault: true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(&models.Address{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// Edit updates the fields of an owned address. The default flag is untouched.
func (s *AddressService) Edit(ctx context.Context, userID, addressID uint, in AddressInput) (*models.Address, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	address, err := ownedAddress(db, userID, addressID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":    in.Title,
		"address":  in.Address,
		"state":    in.State,
		"city":     in.City,
		"pincode":  in.Pincode,
		"landmark": in.Landmark,
		"phone":    in.Phone,
	}
	if err := db.Model(address).Updates(updates).Error; err != nil {
		return nil, err
	}
	return ownedAddress(db, userID, addressID)
}

// SetDefault makes addressID the user's only default address.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		if _, err := ownedAddress(tx, userID, addressID); err != nil {
			return err
		}
		return tx.Exec("UPDATE addresses SET is_default = (id = ?) WHERE user_id = ?", addressID, userID).Error
	})
}

// Delete removes an owned address. Deleting the default promotes the newest
// remaining address.
func (s *AddressService) Delete(ctx context.Context, userID, addressID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}
		address, err := ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}

		var next models.Address
		if err := tx.Where("user_id = ?", userID).Order("id DESC").First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

func ownedAddress(db *gorm.DB, userID, addressID uint) (*models.Address, error) {
	var address models.Address
	if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("address")
		}
		return nil, err
	}
	return &address, nil
}

// lockUser serializes address changes of one user for the rest of tx.
func lockUser(tx *gorm.DB, userID uint) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("user")
		}
		return err
	}
	return nil
}
