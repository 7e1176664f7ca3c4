package tenant

import (
	"context"
	"sync"
	"testing"
	"time"

	"apmc-backend/internal/apperror"
	"apmc-backend/internal/billing"
	"apmc-backend/internal/models"
	"apmc-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provision(t *testing.T, db *gorm.DB, m *Manager, name string) (*models.Tenant, *Store) {
	t.Helper()
	ten, err := m.Provision(context.Background(), name, models.TenantSettings{})
	if err != nil {
		t.Fatalf("Provision(%s): %v", name, err)
	}
	t.Cleanup(func() { DropTenantSchema(context.Background(), db, ten.SchemaName) })
	st, err := m.StoreFor(ten)
	if err != nil {
		t.Fatal(err)
	}
	return ten, st
}

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestSchemaIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ctx := context.Background()

	_, a := provision(t, db, m, "Tenant A")
	_, b := provision(t, db, m, "Tenant B")

	fa := &models.Farmer{Name: "Suresh", Mobile: "9876543210"}
	fb := &models.Farmer{Name: "Mahesh", Mobile: "9876543210"}
	if err := a.CreateFarmer(ctx, fa); err != nil {
		t.Fatalf("create farmer in A: %v", err)
	}
	if err := b.CreateFarmer(ctx, fb); err != nil {
		t.Fatalf("same mobile in B must not conflict: %v", err)
	}

	dup := &models.Farmer{Name: "Other", Mobile: "9876543210"}
	if err := a.CreateFarmer(ctx, dup); !apperror.IsValidation(err) {
		t.Errorf("duplicate mobile inside A: err = %v", err)
	}

	farmersA, err := a.ListFarmers(ctx, FarmerFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(farmersA) != 1 || farmersA[0].Name != "Suresh" {
		t.Errorf("tenant A sees %+v", farmersA)
	}
	if _, err := a.GetFarmer(ctx, fb.ID+1000); !apperror.IsNotFound(err) {
		t.Errorf("unknown farmer err = %v", err)
	}
}

func TestCreateTenantSchemaIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ten, _ := provision(t, db, m, "Twice")
	if err := CreateTenantSchema(context.Background(), db, ten.SchemaName); err != nil {
		t.Fatalf("second create: %v", err)
	}
}

func TestCreateTenantSchemaStructureMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	schema := NewSchemaID()
	t.Cleanup(func() { DropTenantSchema(context.Background(), db, schema) })

	db.Exec(`CREATE SCHEMA "` + schema + `"`)
	db.Exec(`CREATE TABLE "` + schema + `".farmers (id BIGSERIAL PRIMARY KEY)`)

	err := CreateTenantSchema(context.Background(), db, schema)
	if !apperror.IsProvisioning(err) {
		t.Fatalf("err = %v, want ProvisioningError", err)
	}
}

func seedLot(t *testing.T, st *Store, bags int) *models.Lot {
	t.Helper()
	ctx := context.Background()
	f := &models.Farmer{Name: "Ravi", Mobile: "9000000001"}
	if err := st.CreateFarmer(ctx, f); err != nil {
		t.Fatal(err)
	}
	lot := &models.Lot{LotNumber: "L-1", FarmerID: f.ID, NumberOfBags: bags, LotPrice: dec("9000")}
	if err := st.CreateLot(ctx, lot); err != nil {
		t.Fatal(err)
	}
	return lot
}

func TestBagValidationAndCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	_, st := provision(t, db, m, "Bags")
	ctx := context.Background()
	lot := seedLot(t, st, 3)

	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 4, Weight: dec("40")}); !apperror.IsValidation(err) {
		t.Errorf("out of range bag err = %v", err)
	}
	if _, err := st.CreateBag(ctx, lot.ID+99, BagInput{BagNumber: 1}); !apperror.IsNotFound(err) {
		t.Errorf("unknown lot err = %v", err)
	}
	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 1, Weight: dec("45")}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 1, Weight: dec("45")}); !apperror.IsValidation(err) {
		t.Errorf("duplicate bag err = %v", err)
	}

	if _, err := st.CompleteLot(ctx, lot.ID); !apperror.IsValidation(err) {
		t.Errorf("completing with missing bags err = %v", err)
	}

	for n := 2; n <= 3; n++ {
		if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: n, Weight: dec("45.5")}); err != nil {
			t.Fatal(err)
		}
	}
	done, err := st.CompleteLot(ctx, lot.ID)
	if err != nil {
		t.Fatalf("CompleteLot: %v", err)
	}
	if done.Status != models.LotStatusCompleted || done.TotalWeight == nil || !done.TotalWeight.Equal(decimal.RequireFromString("136")) {
		t.Errorf("completed lot = %+v", done)
	}

	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 3, Weight: dec("1")}); !apperror.IsValidation(err) {
		t.Errorf("bag on completed lot err = %v", err)
	}
	if _, _, err := st.UpdateBag(ctx, done.Bags[0].ID, BagPatch{Weight: dec("99")}); !apperror.IsValidation(err) {
		t.Errorf("update on completed lot err = %v", err)
	}

	lots, err := st.ListCompletedLots(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(lots) != 1 || len(lots[0].Bags) != 3 || lots[0].Farmer == nil {
		t.Errorf("ListCompletedLots = %+v", lots)
	}
}

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"ram":  "%ram%",
		"50%":  `%50\%%`,
		"a_b":  `%a\_b%`,
		`c:\x`: `%c:\\x%`,
		"":     "%%",
	}
	for in, want := range cases {
		if got := containsPattern(in); got != want {
			t.Errorf("containsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBagPatchUpdates(t *testing.T) {
	u := BagPatch{}.updates()
	if _, ok := u["weight"]; ok {
		t.Error("empty patch must not touch weight")
	}
	if _, ok := u["updated_at"]; !ok || len(u) != 1 {
		t.Errorf("empty patch updates = %v", u)
	}

	grade := "B"
	u = BagPatch{Weight: dec("41.5"), Grade: &grade}.updates()
	if w, ok := u["weight"].(decimal.Decimal); !ok || !w.Equal(decimal.RequireFromString("41.5")) {
		t.Errorf("weight = %v", u["weight"])
	}
	if u["grade"] != "B" {
		t.Errorf("grade = %v", u["grade"])
	}
	if _, ok := u["notes"]; ok {
		t.Error("notes not sent but updated")
	}
}

func TestUpdateBagKeepsOmittedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ctx := context.Background()
	_, st := provision(t, db, m, "Partial Bag Market")

	lot := seedLot(t, st, 2)
	bag, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 1, Weight: dec("45"), Grade: "A"})
	if err != nil {
		t.Fatal(err)
	}
	notes := "re-weighed"
	_, after, err := st.UpdateBag(ctx, bag.ID, BagPatch{Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if after.Weight == nil || !after.Weight.Equal(decimal.RequireFromString("45")) || after.Grade != "A" || after.Notes != notes {
		t.Errorf("after = %+v", after)
	}
}

func TestListFarmersSearchIsLiteral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ctx := context.Background()
	_, st := provision(t, db, m, "Search Market")

	for _, f := range []*models.Farmer{
		{Name: "Ravi_Kumar", Mobile: "9876500001"},
		{Name: "RaviXKumar", Mobile: "9876500002"},
		{Name: "Anil", Mobile: "9876500003", Place: "100% Nagar"},
	} {
		if err := st.CreateFarmer(ctx, f); err != nil {
			t.Fatal(err)
		}
	}

	got, err := st.ListFarmers(ctx, FarmerFilter{Search: "ravi_"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Ravi_Kumar" {
		t.Errorf("search ravi_ = %+v", got)
	}
	got, err = st.ListFarmers(ctx, FarmerFilter{Search: "%"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Anil" {
		t.Errorf("search %% = %+v", got)
	}
}

func TestCompletedLotsWindowIsHalfOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ctx := context.Background()
	_, st := provision(t, db, m, "Midnight Market")

	lot := seedLot(t, st, 1)
	createdAt := time.Date(2026, 3, 10, 23, 59, 59, 999_500_000, time.UTC)
	if err := st.table(ctx, "lots").Where("id = ?", lot.ID).Updates(map[string]any{
		"status":     models.LotStatusCompleted,
		"created_at": createdAt,
	}).Error; err != nil {
		t.Fatal(err)
	}

	day := billing.DayRange(createdAt)
	next := billing.DayRange(day.Until())
	found := 0
	for _, r := range []billing.Range{day, next} {
		lots, err := st.ListCompletedLots(ctx, r.Start, r.Until())
		if err != nil {
			t.Fatal(err)
		}
		found += len(lots)
	}
	if found != 1 {
		t.Errorf("lot found in %d daily windows, want 1", found)
	}
}

func TestCompleteLotSingleWriter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	_, st := provision(t, db, m, "Race")
	ctx := context.Background()
	lot := seedLot(t, st, 1)
	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 1, Weight: dec("50")}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.CompleteLot(ctx, lot.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !apperror.IsValidation(err) {
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d completions succeeded, want 1", ok)
	}
}

func TestDashboardStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	_, st := provision(t, db, m, "Dash")
	ctx := context.Background()
	lot := seedLot(t, st, 2)
	if _, err := st.CreateBag(ctx, lot.ID, BagInput{BagNumber: 1, Weight: dec("50")}); err != nil {
		t.Fatal(err)
	}

	stats, err := st.GetDashboardStats(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalFarmers != 1 || stats.ActiveLots != 1 || stats.BagsCreatedToday != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAuditLogAppend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	_, st := provision(t, db, m, "Audit")
	ctx := context.Background()

	err := st.WriteAudit(ctx, AuditEntry{
		UserID: 1, UserName: "clerk", EntityType: "farmer", EntityID: 5,
		Action: models.AuditActionCreate, After: map[string]any{"name": "Ravi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	logs, err := st.ListAuditLogs(ctx, AuditFilter{EntityType: "farmer"})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].BeforeData != "null" {
		t.Errorf("logs = %+v", logs)
	}
}

func TestManagerLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	m := NewManager(db, zap.NewNop())
	ctx := context.Background()
	ten, _ := provision(t, db, m, "Lifecycle")

	updated, err := m.UpdateSettings(ctx, ten.ID, models.TenantSettings{PackagingPerBag: dec("5")})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Settings.Resolve().PackagingPerBag.Equal(decimal.NewFromInt(5)) {
		t.Errorf("settings = %+v", updated.Settings)
	}
	if _, err := m.UpdateSettings(ctx, ten.ID, models.TenantSettings{SGSTRate: dec("140")}); !apperror.IsValidation(err) {
		t.Errorf("invalid settings err = %v", err)
	}

	if _, err := m.Deactivate(ctx, ten.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.ActiveStore(ctx, ten.ID); err != ErrTenantInactive {
		t.Errorf("ActiveStore err = %v", err)
	}

	if err := m.Destroy(ctx, ten.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, ten.ID); !apperror.IsNotFound(err) {
		t.Errorf("Get after destroy err = %v", err)
	}
}
