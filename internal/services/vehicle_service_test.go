package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tbourn/dealership-backend/internal/domain"
	"github.com/tbourn/dealership-backend/internal/store"
)

func newVehicles(b store.Backend) *VehicleService {
	return &VehicleService{Store: b, IDGen: seqIDs("v"), Now: clock()}
}

func decodeInput(t *testing.T, js string) domain.VehicleInput {
	t.Helper()
	var in domain.VehicleInput
	if err := json.Unmarshal([]byte(js), &in); err != nil {
		t.Fatalf("decode input: %v", err)
	}
	return in
}

func TestVehicleCreate_CoercesNumericStrings(t *testing.T) {
	ctx := context.Background()
	svc := newVehicles(newSQLBackend(t))

	v, err := svc.Create(ctx, decodeInput(t, `{"make":"Honda","model":"Civic","year":"2019","price":" $18,500 ","mileage":"42,000","featured":true}`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v.ID != "v1" || v.CreatedAt.IsZero() {
		t.Fatalf("server fields: %+v", v)
	}
	if v.Year != 2019 || v.Price != 18500 || v.Mileage != 42000 || !v.Featured {
		t.Fatalf("coercion: %+v", v)
	}

	got, err := svc.Get(ctx, "v1")
	if err != nil || got.Price != 18500 {
		t.Fatalf("Get = %+v, %v", got, err)
	}
}

func TestVehicleCreate_Validation(t *testing.T) {
	svc := newVehicles(store.NewMemoryBackend())
	tests := []struct {
		name, js, field string
	}{
		{"missing make", `{"model":"Civic"}`, "make"},
		{"missing model", `{"make":"Honda","model":"  "}`, "model"},
		{"nan price", `{"make":"Honda","model":"Civic","price":"NaN"}`, "price"},
		{"text price", `{"make":"Honda","model":"Civic","price":"call us"}`, "price"},
		{"negative mileage", `{"make":"Honda","model":"Civic","mileage":-5}`, "mileage"},
		{"fractional year", `{"make":"Honda","model":"Civic","year":"2019.5"}`, "year"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), decodeInput(t, tc.js))
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("want %s ValidationError, got %v", tc.field, err)
			}
		})
	}
	all, _ := svc.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("nothing should be stored, have %d", len(all))
	}
}

func TestVehicleCreate_BlankNumbersAreZero(t *testing.T) {
	v, err := BuildVehicle(decodeInput(t, `{"make":"Ford","model":"F-150","price":"","mileage":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if v.Price != 0 || v.Mileage != 0 || v.Year != 0 {
		t.Fatalf("blank numerics: %+v", v)
	}
}

func TestVehicleUpdate_PathIDWins(t *testing.T) {
	ctx := context.Background()
	svc := newVehicles(store.NewMemoryBackend())
	if _, err := svc.Create(ctx, decodeInput(t, `{"make":"Honda","model":"Civic","price":1000,"exteriorColor":"Blue"}`)); err != nil {
		t.Fatal(err)
	}

	var p domain.VehiclePatch
	if err := json.Unmarshal([]byte(`{"id":"spoofed","price":500,"secret":"x"}`), &p); err != nil {
		t.Fatal(err)
	}
	v, err := svc.Update(ctx, "v1", p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v.ID != "v1" || v.Price != 500 || v.ExteriorColor != "Blue" || v.Make != "Honda" {
		t.Fatalf("merged = %+v", v)
	}

	stored, _ := svc.Get(ctx, "v1")
	if stored.ID != "v1" || stored.Price != 500 {
		t.Fatalf("stored = %+v", stored)
	}
	if _, err := svc.Get(ctx, "spoofed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("spoofed id must not exist: %v", err)
	}
}

func TestVehicleUpdate_NormalizesIdentityFields(t *testing.T) {
	ctx := context.Background()
	svc := newVehicles(store.NewMemoryBackend())
	created, err := svc.Create(ctx, decodeInput(t, `{"make":"Honda","model":"Civic","vin":" 1hgcm82633a004352 ","stockNumber":" A-100 "}`))
	if err != nil {
		t.Fatal(err)
	}

	var p domain.VehiclePatch
	if err := json.Unmarshal([]byte(`{"vin":" 2hgfc2f59kh512345 ","stockNumber":"  B-200\t","model":" Civic Si "}`), &p); err != nil {
		t.Fatal(err)
	}
	v, err := svc.Update(ctx, "v1", p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if created.VIN != "1HGCM82633A004352" || created.StockNumber != "A-100" {
		t.Fatalf("created = %+v", created)
	}
	if v.VIN != "2HGFC2F59KH512345" || v.StockNumber != "B-200" || v.Model != "Civic Si" {
		t.Fatalf("patched = %+v", v)
	}

	// A whitespace-only make normalizes to empty and is rejected.
	blank := "   "
	if _, err := svc.Update(ctx, "v1", domain.VehiclePatch{Make: &blank}); !IsValidation(err) {
		t.Fatalf("blank make: %v", err)
	}
}

func TestVehicleUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newVehicles(store.NewMemoryBackend())
	_, _ = svc.Create(ctx, decodeInput(t, `{"make":"Honda","model":"Civic","price":1000}`))

	if _, err := svc.Update(ctx, "nope", domain.VehiclePatch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: %v", err)
	}

	bad := domain.NewFlexNumber("abc")
	if _, err := svc.Update(ctx, "v1", domain.VehiclePatch{Price: &bad}); !IsValidation(err) {
		t.Fatalf("bad price: %v", err)
	}
	empty := ""
	if _, err := svc.Update(ctx, "v1", domain.VehiclePatch{Make: &empty}); !IsValidation(err) {
		t.Fatalf("empty make: %v", err)
	}
	stored, _ := svc.Get(ctx, "v1")
	if stored.Price != 1000 || stored.Make != "Honda" {
		t.Fatalf("failed updates must not write: %+v", stored)
	}
}

func TestVehicleDelete_SecondDeleteIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newVehicles(store.NewMemoryBackend())
	_, _ = svc.Create(ctx, decodeInput(t, `{"make":"A","model":"1"}`))
	_, _ = svc.Create(ctx, decodeInput(t, `{"make":"B","model":"2"}`))

	if err := svc.Delete(ctx, "v1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	all, _ := svc.List(ctx)
	if len(all) != 1 || all[0].ID != "v2" {
		t.Fatalf("remaining = %+v", all)
	}
}

func TestVehicleWrites_StorageError(t *testing.T) {
	ctx := context.Background()
	b := newBroken()
	_ = b.MemoryBackend.Save(ctx, store.Vehicles, []byte(`[{"id":"v1","make":"A","model":"B"}]`))
	svc := newVehicles(b)

	if _, err := svc.Create(ctx, decodeInput(t, `{"make":"A","model":"B"}`)); !errors.Is(err, store.ErrStorage) {
		t.Fatalf("create: %v", err)
	}
	price := domain.NewFlexNumber("1")
	if _, err := svc.Update(ctx, "v1", domain.VehiclePatch{Price: &price}); !errors.Is(err, store.ErrStorage) {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, "v1"); !errors.Is(err, store.ErrStorage) {
		t.Fatalf("delete: %v", err)
	}
}

func TestVehicleList_CorruptDocumentIsEmpty(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	_ = b.Save(ctx, store.Vehicles, []byte(`{not json`))
	all, err := newVehicles(b).List(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("List = %v, %v", all, err)
	}
}
