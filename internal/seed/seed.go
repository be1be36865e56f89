// Package seed imports an inventory file into the vehicles collection. The
// file is YAML or JSON (a JSON document is valid YAML), either a bare list of
// vehicles or a mapping with a "vehicles" key.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/services"
	"github.com/tbourn/dealership-backend/internal/store"
)

// ErrEmpty is returned when the input holds no vehicles.
var ErrEmpty = errors.New("seed: no vehicles in input")

// flex lets YAML scalars feed the same coercion the HTTP create path uses.
type flex struct{ domain.FlexNumber }

func (f *flex) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", n.Line)
	}
	if n.Tag == "!!null" {
		f.FlexNumber = domain.FlexNumber{}
		return nil
	}
	f.FlexNumber = domain.NewFlexNumber(n.Value)
	return nil
}

type feature struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

type entry struct {
	ID            string     `yaml:"id"`
	Make          string     `yaml:"make"`
	Model         string     `yaml:"model"`
	Trim          string     `yaml:"trim"`
	Year          flex       `yaml:"year"`
	Price         flex       `yaml:"price"`
	Mileage       flex       `yaml:"mileage"`
	FuelType      string     `yaml:"fuelType"`
	Transmission  string     `yaml:"transmission"`
	ExteriorColor string     `yaml:"exteriorColor"`
	InteriorColor string     `yaml:"interiorColor"`
	VIN           string     `yaml:"vin"`
	StockNumber   string     `yaml:"stockNumber"`
	Engine        string     `yaml:"engine"`
	Drivetrain    string     `yaml:"drivetrain"`
	BodyType      string     `yaml:"bodyType"`
	Condition     string     `yaml:"condition"`
	Description   string     `yaml:"description"`
	Image         string     `yaml:"image"`
	Featured      bool       `yaml:"featured"`
	Features      []feature  `yaml:"features"`
	CreatedAt     *time.Time `yaml:"createdAt"`
}

func (e entry) input() domain.VehicleInput {
	in := domain.VehicleInput{
		Make:          e.Make,
		Model:         e.Model,
		Trim:          e.Trim,
		Year:          e.Year.FlexNumber,
		Price:         e.Price.FlexNumber,
		Mileage:       e.Mileage.FlexNumber,
		FuelType:      e.FuelType,
		Transmission:  e.Transmission,
		ExteriorColor: e.ExteriorColor,
		InteriorColor: e.InteriorColor,
		VIN:           e.VIN,
		StockNumber:   e.StockNumber,
		Engine:        e.Engine,
		Drivetrain:    e.Drivetrain,
		BodyType:      e.BodyType,
		Condition:     e.Condition,
		Description:   e.Description,
		Image:         e.Image,
		Featured:      e.Featured,
	}
	for _, f := range e.Features {
		in.Features = append(in.Features, domain.FeatureGroup{Category: f.Category, Items: f.Items})
	}
	return in
}

// Parse decodes an inventory document and validates every entry the way
// POST /vehicles does. Missing ids are left empty for Import to fill.
func Parse(r io.Reader) ([]domain.Vehicle, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmpty
	}

	var entries []entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		var doc struct {
			Vehicles []entry `yaml:"vehicles"`
		}
		if err2 := yaml.Unmarshal(raw, &doc); err2 != nil {
			return nil, fmt.Errorf("seed: decode: %w", err)
		}
		entries = doc.Vehicles
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	out := make([]domain.Vehicle, 0, len(entries))
	for i, e := range entries {
		v, err := services.BuildVehicle(e.input())
		if err != nil {
			return nil, fmt.Errorf("seed: vehicle %d: %w", i+1, err)
		}
		v.ID = strings.TrimSpace(e.ID)
		if e.CreatedAt != nil {
			v.CreatedAt = e.CreatedAt.UTC()
		}
		out = append(out, v)
	}
	return out, nil
}

// Importer writes parsed vehicles into the record store.
type Importer struct {
	Store store.Backend
	IDGen func() string
	Now   func() time.Time
}

// Sandbox copies the vehicles collection of src into a fresh in-memory
// backend. Importing into the sandbox reports what a real run would do while
// src stays untouched.
func Sandbox(ctx context.Context, src store.Backend) (*store.MemoryBackend, error) {
	raw, err := src.Load(ctx, store.Vehicles)
	if err != nil {
		return nil, err
	}
	mem := store.NewMemoryBackend()
	if raw != nil {
		if err := mem.Save(ctx, store.Vehicles, raw); err != nil {
			return nil, err
		}
	}
	return mem, nil
}

// Report summarizes one import.
type Report struct {
	Created int
	Updated int
	Total   int
}

// Import merges vehicles into the collection: an entry whose id matches a
// stored vehicle replaces it in place, anything else is appended. With
// replace set the collection is overwritten instead. The collection is
// written once.
func (im *Importer) Import(ctx context.Context, vehicles []domain.Vehicle, replace bool) (Report, error) {
	idGen := im.IDGen
	if idGen == nil {
		idGen = uuid.NewString
	}
	now := time.Now().UTC()
	if im.Now != nil {
		now = im.Now()
	}

	var all []domain.Vehicle
	if !replace {
		existing, err := store.ReadAll[domain.Vehicle](ctx, im.Store, store.Vehicles)
		if err != nil {
			return Report{}, err
		}
		all = existing
	}

	pos := make(map[string]int, len(all))
	for i, v := range all {
		pos[v.ID] = i
	}

	var rep Report
	for _, v := range vehicles {
		if v.ID == "" {
			v.ID = idGen()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = now
		}
		if i, ok := pos[v.ID]; ok {
			all[i] = v
			rep.Updated++
			continue
		}
		pos[v.ID] = len(all)
		all = append(all, v)
		rep.Created++
	}

	if err := store.WriteAll(ctx, im.Store, store.Vehicles, all); err != nil {
		return Report{}, err
	}
	rep.Total = len(all)
	log.Info().
		Int("created", rep.Created).
		Int("updated", rep.Updated).
		Int("total", rep.Total).
		Bool("replace", replace).
		Msg("vehicles imported")
	return rep, nil
}
