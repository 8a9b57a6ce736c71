// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressService manages a customer's address book
type AddressService struct {
	db *gorm.DB
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// AddressRequest represents address create/replace data
type AddressRequest struct {
	Type         string `json:"type" binding:"required,oneof=shipping billing"`
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name"`
	Company      string `json:"company"`
	GSTIN        string `json:"gstin"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

// Validate checks PIN code, GSTIN and country
func (r *AddressRequest) Validate() error {
	if err := ValidatePostalCode(r.PostalCode); err != nil {
		return err
	}
	if r.GSTIN != "" {
		if err := ValidateGSTIN(r.GSTIN); err != nil {
			return err
		}
	}
	return validateCountry(r.Country)
}

func (r *AddressRequest) apply(a *Address) {
	a.Type = r.Type
	a.FirstName = r.FirstName
	a.LastName = r.LastName
	a.Company = r.Company
	a.GSTIN = strings.ToUpper(strings.TrimSpace(r.GSTIN))
	a.AddressLine1 = r.AddressLine1
	a.AddressLine2 = r.AddressLine2
	a.City = r.City
	a.State = r.State
	a.PostalCode = strings.TrimSpace(r.PostalCode)
	a.Country = "IN"
	a.Phone = r.Phone
	a.IsDefault = r.IsDefault
}

// GetUserAddresses lists a user's addresses, defaults first
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint, addressType string) ([]Address, error) {
	var addresses []Address

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if addressType != "" {
		query = query.Where("type = ?", addressType)
	}

	if err := query.Order("is_default DESC, created_at DESC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress retrieves a specific address for a user
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	var address Address
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}

// CreateAddress adds an address. A new default replaces the previous default of its type.
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *AddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address := Address{UserID: userID}
	req.apply(&address)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID, address.Type); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress replaces an existing address
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *AddressRequest) (*Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := s.GetAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	req.apply(address)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID, address.Type); err != nil {
				return err
			}
		}
		if err := tx.Save(address).Error; err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress deletes an address
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).Delete(&Address{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete address: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func unsetDefaultAddresses(tx *gorm.DB, userID uint, addressType string) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND type = ? AND is_default = ?", userID, addressType, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to reset default address: %w", err)
	}
	return nil
}
