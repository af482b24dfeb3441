package store

import (
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/mom/internal/model"
)

func TestShoppingLifecycle(t *testing.T) {
	ss := NewShoppingStore(setupTestDB(t))

	milk, err := ss.Create("Milk")
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if !strings.HasPrefix(milk.ID, "shp_") {
		t.Errorf("id = %q, want shp_ prefix", milk.ID)
	}
	if milk.Bought {
		t.Error("new item should not be bought")
	}
	bread, _ := ss.Create("Bread")

	items, err := ss.List()
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].ID != bread.ID {
		t.Errorf("items = %+v, want newest first", items)
	}

	got, err := ss.ToggleBought(milk.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !got.Bought {
		t.Error("expected item to be bought after toggle")
	}
	got, _ = ss.ToggleBought(milk.ID)
	if got.Bought {
		t.Error("expected second toggle to clear bought")
	}

	if got, err := ss.ToggleBought("shp_missing"); err != nil || got != nil {
		t.Errorf("toggle missing = %v, %v; want nil, nil", got, err)
	}

	if err := ss.Delete(milk.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := ss.GetByID(milk.ID); got != nil {
		t.Error("expected item to be deleted")
	}
}

func TestRecipeSteps(t *testing.T) {
	rs := NewRecipeStore(setupTestDB(t))

	rc, err := rs.Create("Lentil soup", []string{"Rinse lentils", "Simmer 30 minutes"})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if !strings.HasPrefix(rc.ID, "rcp_") {
		t.Errorf("id = %q, want rcp_ prefix", rc.ID)
	}
	if len(rc.Steps) != 2 || rc.Steps[1] != "Simmer 30 minutes" {
		t.Errorf("steps = %q", rc.Steps)
	}

	bare, err := rs.Create("Tea", nil)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if bare.Steps == nil || len(bare.Steps) != 0 {
		t.Errorf("steps = %#v, want empty", bare.Steps)
	}

	if err := rs.Delete(rc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	recipes, _ := rs.List()
	if len(recipes) != 1 || recipes[0].ID != bare.ID {
		t.Errorf("recipes = %+v", recipes)
	}
}

func TestPhotoLifecycle(t *testing.T) {
	ps := NewPhotoStore(setupTestDB(t))

	p, err := ps.Create("eid.jpg", "data:image/jpeg;base64,AAAA", "2024-04-10T18:00:00.000Z")
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
	if !strings.HasPrefix(p.ID, "pho_") || p.Src != "data:image/jpeg;base64,AAAA" || p.Date != "2024-04-10T18:00:00.000Z" {
		t.Errorf("photo = %+v", p)
	}

	if err := ps.Delete(p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	photos, _ := ps.List()
	if len(photos) != 0 {
		t.Errorf("photos = %+v, want none", photos)
	}
}

func TestArchiveCarriesHouseholdRecords(t *testing.T) {
	db := setupTestDB(t)
	as := NewArchiveStore(db)

	in := &model.Archive{
		Shopping: []model.ShoppingItem{
			{ID: "s_2", Text: "Bread", Bought: true},
			{ID: "s_1", Text: "Milk"},
		},
		Recipes: []model.Recipe{
			{ID: "r_1", Title: "Soup", Steps: []string{"Boil", "Serve"}},
		},
		Photos: []model.Photo{
			{ID: "p_1", Name: "eid.jpg", Src: "data:image/jpeg;base64,AAAA", Date: "2024-04-10T18:00:00.000Z"},
		},
	}
	if err := as.Replace(in); err != nil {
		t.Fatalf("replace: %v", err)
	}

	out, err := as.Export(time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(out.Shopping) != 2 || out.Shopping[0].ID != "s_2" || out.Shopping[1].ID != "s_1" {
		t.Errorf("shopping = %+v, want archive order kept", out.Shopping)
	}
	if !out.Shopping[0].Bought || out.Shopping[1].Bought {
		t.Errorf("bought flags not kept: %+v", out.Shopping)
	}
	if len(out.Recipes) != 1 || strings.Join(out.Recipes[0].Steps, "|") != "Boil|Serve" {
		t.Errorf("recipes = %+v", out.Recipes)
	}
	if len(out.Photos) != 1 || out.Photos[0].Src != in.Photos[0].Src || out.Photos[0].Date != in.Photos[0].Date {
		t.Errorf("photos = %+v", out.Photos)
	}
	if out.Medications == nil || out.Appointments == nil {
		t.Error("expected empty, non-nil collections")
	}

	sum, err := as.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if *sum != (model.Summary{Shopping: 2, Recipes: 1, Photos: 1}) {
		t.Errorf("summary = %+v", *sum)
	}

	if err := as.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sum, _ = as.Summary()
	if *sum != (model.Summary{}) {
		t.Errorf("summary after clear = %+v", *sum)
	}
}
