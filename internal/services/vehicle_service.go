// Package services – VehicleService
//
// VehicleService is whole-collection CRUD over the vehicles document.
// Numeric form fields arrive as FlexNumber and are coerced here; anything
// that is not a finite, non-negative number is a *ValidationError, so NaN
// never reaches the store.

package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/metrics"
	"github.com/tbourn/dealership-backend/internal/store"
)

// VehicleService manages inventory.
type VehicleService struct {
	Store store.Backend
	IDGen func() string
	Now   func() time.Time
}

func (s *VehicleService) newID() string {
	if s.IDGen != nil {
		return s.IDGen()
	}
	return uuid.NewString()
}

func (s *VehicleService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns the whole collection in stored order.
func (s *VehicleService) List(ctx context.Context) ([]domain.Vehicle, error) {
	return store.ReadAll[domain.Vehicle](ctx, s.Store, store.Vehicles)
}

// Get returns one vehicle or ErrNotFound.
func (s *VehicleService) Get(ctx context.Context, id string) (domain.Vehicle, error) {
	all, err := s.List(ctx)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if i := indexOfVehicle(all, id); i >= 0 {
		return all[i], nil
	}
	return domain.Vehicle{}, ErrNotFound
}

// Create validates in, assigns an id and createdAt, and appends it.
func (s *VehicleService) Create(ctx context.Context, in domain.VehicleInput) (domain.Vehicle, error) {
	tr := otel.Tracer("services/VehicleService")
	ctx, span := tr.Start(ctx, "Create")
	defer span.End()

	v, err := BuildVehicle(in)
	if err != nil {
		return domain.Vehicle{}, err
	}
	v.ID = s.newID()
	v.CreatedAt = s.now()
	span.SetAttributes(attribute.String("vehicle.id", v.ID))

	if _, err := store.Append(ctx, s.Store, store.Vehicles, v); err != nil {
		return domain.Vehicle{}, err
	}
	metrics.VehicleWrites.WithLabelValues("create").Inc()
	return v, nil
}

// BuildVehicle validates and coerces a create payload. It leaves ID and
// CreatedAt unset.
func BuildVehicle(in domain.VehicleInput) (domain.Vehicle, error) {
	v := domain.Vehicle{
		Make:          strings.TrimSpace(in.Make),
		Model:         strings.TrimSpace(in.Model),
		Trim:          strings.TrimSpace(in.Trim),
		FuelType:      in.FuelType,
		Transmission:  in.Transmission,
		ExteriorColor: in.ExteriorColor,
		InteriorColor: in.InteriorColor,
		VIN:           strings.ToUpper(strings.TrimSpace(in.VIN)),
		StockNumber:   strings.TrimSpace(in.StockNumber),
		Engine:        in.Engine,
		Drivetrain:    in.Drivetrain,
		BodyType:      in.BodyType,
		Condition:     in.Condition,
		Description:   in.Description,
		Image:         in.Image,
		Featured:      in.Featured,
		Features:      in.Features,
	}
	if f := firstMissing(field{"make", v.Make}, field{"model", v.Model}); f != "" {
		return v, invalid(f, f+" is required")
	}

	var err error
	if v.Year, err = coerceYear(in.Year); err != nil {
		return v, err
	}
	if v.Price, err = coerceAmount("price", in.Price); err != nil {
		return v, err
	}
	if v.Mileage, err = coerceAmount("mileage", in.Mileage); err != nil {
		return v, err
	}
	return v, nil
}

// Update shallow-merges p onto the stored vehicle. The stored id is kept.
func (s *VehicleService) Update(ctx context.Context, id string, p domain.VehiclePatch) (domain.Vehicle, error) {
	tr := otel.Tracer("services/VehicleService")
	ctx, span := tr.Start(ctx, "Update", trace.WithAttributes(attribute.String("vehicle.id", id)))
	defer span.End()

	all, err := s.List(ctx)
	if err != nil {
		return domain.Vehicle{}, err
	}
	i := indexOfVehicle(all, id)
	if i < 0 {
		return domain.Vehicle{}, ErrNotFound
	}

	v, err := applyPatch(all[i], p)
	if err != nil {
		return domain.Vehicle{}, err
	}
	v.ID = all[i].ID
	all[i] = v

	if err := store.WriteAll(ctx, s.Store, store.Vehicles, all); err != nil {
		return domain.Vehicle{}, err
	}
	metrics.VehicleWrites.WithLabelValues("update").Inc()
	return v, nil
}

// Delete removes exactly one vehicle.
func (s *VehicleService) Delete(ctx context.Context, id string) error {
	tr := otel.Tracer("services/VehicleService")
	ctx, span := tr.Start(ctx, "Delete", trace.WithAttributes(attribute.String("vehicle.id", id)))
	defer span.End()

	all, err := s.List(ctx)
	if err != nil {
		return err
	}
	i := indexOfVehicle(all, id)
	if i < 0 {
		return ErrNotFound
	}
	if err := store.WriteAll(ctx, s.Store, store.Vehicles, append(all[:i], all[i+1:]...)); err != nil {
		return err
	}
	metrics.VehicleWrites.WithLabelValues("delete").Inc()
	return nil
}

func applyPatch(v domain.Vehicle, p domain.VehiclePatch) (domain.Vehicle, error) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	// Identity fields get the same normalization BuildVehicle applies.
	setTrimmed := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setTrimmed(&v.Make, p.Make)
	setTrimmed(&v.Model, p.Model)
	setTrimmed(&v.Trim, p.Trim)
	setStr(&v.FuelType, p.FuelType)
	setStr(&v.Transmission, p.Transmission)
	setStr(&v.ExteriorColor, p.ExteriorColor)
	setStr(&v.InteriorColor, p.InteriorColor)
	if p.VIN != nil {
		v.VIN = strings.ToUpper(strings.TrimSpace(*p.VIN))
	}
	setTrimmed(&v.StockNumber, p.StockNumber)
	setStr(&v.Engine, p.Engine)
	setStr(&v.Drivetrain, p.Drivetrain)
	setStr(&v.BodyType, p.BodyType)
	setStr(&v.Condition, p.Condition)
	setStr(&v.Description, p.Description)
	setStr(&v.Image, p.Image)
	if p.Featured != nil {
		v.Featured = *p.Featured
	}
	if p.Features != nil {
		v.Features = *p.Features
	}

	if p.Make != nil && strings.TrimSpace(v.Make) == "" {
		return v, invalid("make", "make cannot be empty")
	}
	if p.Model != nil && strings.TrimSpace(v.Model) == "" {
		return v, invalid("model", "model cannot be empty")
	}

	var err error
	if p.Year != nil {
		if v.Year, err = coerceYear(*p.Year); err != nil {
			return v, err
		}
	}
	if p.Price != nil {
		if v.Price, err = coerceAmount("price", *p.Price); err != nil {
			return v, err
		}
	}
	if p.Mileage != nil {
		if v.Mileage, err = coerceAmount("mileage", *p.Mileage); err != nil {
			return v, err
		}
	}
	return v, nil
}

// coerceAmount turns form text into a non-negative number. Blank is zero.
func coerceAmount(name string, n domain.FlexNumber) (float64, error) {
	if n.Empty() {
		return 0, nil
	}
	f, err := n.Float()
	if err != nil {
		return 0, invalid(name, name+" must be a number")
	}
	if f < 0 {
		return 0, invalid(name, name+" cannot be negative")
	}
	return f, nil
}

func coerceYear(n domain.FlexNumber) (int, error) {
	if n.Empty() {
		return 0, nil
	}
	f, err := n.Float()
	if err != nil || f != math.Trunc(f) {
		return 0, invalid("year", "year must be a whole number")
	}
	if f < 0 || f > 9999 {
		return 0, invalid("year", "year is out of range")
	}
	return int(f), nil
}

func indexOfVehicle(all []domain.Vehicle, id string) int {
	if id == "" {
		return -1
	}
	for i, v := range all {
		if v.ID == id {
			return i
		}
	}
	return -1
}
