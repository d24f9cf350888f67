package service

import (
	"errors"
	"fmt"
	"strings"

	"saferoute/internal/domain"
	"saferoute/internal/models"
	"saferoute/internal/repository"
)

type ZoneInput struct {
	Name      string
	Latitude  float64
	Longitude float64
	Radius    float64
}

type ZoneService struct {
	zoneRepo *repository.ZoneRepository
}

func NewZoneService(zoneRepo *repository.ZoneRepository) *ZoneService {
	return &ZoneService{zoneRepo: zoneRepo}
}

// Save stores a zone for userID. Zone names are unique per user.
func (s *ZoneService) Save(userID uint, in ZoneInput) (*models.SavedZone, error) {
	in.Name = strings.TrimSpace(in.Name)
	verr := domain.NewValidationError()
	switch {
	case in.Name == "":
		verr.Add("name", msgRequired)
	case len([]rune(in.Name)) > 200:
		verr.Add("name", "Ensure this value has at most 200 characters.")
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		verr.Add("latitude", "Ensure this value is between -90 and 90.")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		verr.Add("longitude", "Ensure this value is between -180 and 180.")
	}
	if !domain.ValidRadius(in.Radius) {
		verr.Add("radius", radiusMessage)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	z := &models.SavedZone{
		UserID:    userID,
		Name:      in.Name,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Radius:    in.Radius,
	}
	if err := s.zoneRepo.Create(z); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.FieldError("name", msgZoneExists)
		}
		return nil, fmt.Errorf("create zone: %w", err)
	}
	return z, nil
}

func (s *ZoneService) List(userID uint) ([]models.SavedZone, error) {
	return s.zoneRepo.ListByUser(userID)
}

var radiusMessage = fmt.Sprintf("Ensure this value is between %g and %g.", domain.ZoneRadiusMin, domain.ZoneRadiusMax)
