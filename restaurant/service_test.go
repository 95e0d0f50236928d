package restaurant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"restaurant-api/apperr"
	"restaurant-api/logger"
	"restaurant-api/models"
	"restaurant-api/store"
	"restaurant-api/store/storetest"
)

type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]models.UserSummary
}

func newFakeDirectory(users ...models.UserSummary) *fakeDirectory {
	d := &fakeDirectory{users: map[string]models.UserSummary{}}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) ResolveUsers(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := map[string]models.UserSummary{}
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *fakeDirectory) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, id)
}

var (
	asha = models.UserSummary{ID: "u-asha", Username: "asha", ProfilePictureURL: "https://img/asha.png", Email: "asha@example.com"}
	ravi = models.UserSummary{ID: "u-ravi", Username: "ravi", Email: "ravi@example.com"}
)

func newTestService(t *testing.T) (*Service, *fakeDirectory) {
	t.Helper()
	dir := newFakeDirectory(asha, ravi)
	st := store.NewGormRestaurantStore(storetest.SQLite(t), logger.NewNop())
	return NewService(st, dir, logger.NewNop()), dir
}

func createRestaurant(t *testing.T, svc *Service, name string, rating float64) *models.Restaurant {
	t.Helper()
	r, err := svc.Create(context.Background(), &models.Restaurant{
		Name: name, Cuisine: "Indian", Address: "MG Road", City: "Pune", Rating: rating,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return r
}

func TestCreateThenGetByID(t *testing.T) {
	svc, _ := newTestService(t)
	created := createRestaurant(t, svc, "Spice Hub", 4)

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Spice Hub" || got.Cuisine != "Indian" || got.Address != "MG Road" || got.City != "Pune" {
		t.Fatalf("unexpected restaurant: %+v", got)
	}
	if got.Menu == nil || len(got.Menu) != 0 || got.Reviews == nil || len(got.Reviews) != 0 {
		t.Fatalf("menu/reviews should be empty, got %v / %v", got.Menu, got.Reviews)
	}
}

func TestGetByNameMissing(t *testing.T) {
	svc, _ := newTestService(t)
	createRestaurant(t, svc, "Spice Hub", 4)

	r, err := svc.GetByName(context.Background(), "spice hub")
	if r != nil || !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("GetByName = %v, %v; want NotFound", r, err)
	}
}

func TestAddThenRemoveDishIgnoresCase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	if _, err := svc.AddDish(ctx, r.ID, models.MenuItem{Name: "Paneer Tikka", Price: 250, IsVeg: true}); err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	if _, err := svc.AddDish(ctx, r.ID, models.MenuItem{Name: "PANEER TIKKA", Price: 260}); err != nil {
		t.Fatalf("AddDish: %v", err)
	}
	updated, err := svc.RemoveDish(ctx, r.ID, "paneer tikka")
	if err != nil {
		t.Fatalf("RemoveDish: %v", err)
	}
	if len(updated.Menu) != 0 {
		t.Fatalf("menu = %+v, want empty", updated.Menu)
	}
}

func TestRemoveDishDoesNotTrim(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)
	if _, err := svc.AddDish(ctx, r.ID, models.MenuItem{Name: "Dosa", Price: 90}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.RemoveDish(ctx, r.ID, " dosa ")
	if err != nil {
		t.Fatalf("RemoveDish: %v", err)
	}
	if len(updated.Menu) != 1 {
		t.Fatalf("menu = %+v, want the dish kept", updated.Menu)
	}
}

func TestDishErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	if _, err := svc.AddDish(ctx, r.ID, models.MenuItem{Price: 10}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("nameless dish error = %v", err)
	}
	if _, err := svc.AddDish(ctx, "missing", models.MenuItem{Name: "Dosa"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing restaurant error = %v", err)
	}
	if _, err := svc.RemoveDish(ctx, "missing", "Dosa"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("remove on missing restaurant error = %v", err)
	}
}

func TestAddReviewKeepsEarlierReviews(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	if _, err := svc.AddReview(ctx, r.ID, asha.ID, "Great biryani", 5); err != nil {
		t.Fatalf("AddReview R1: %v", err)
	}
	updated, err := svc.AddReview(ctx, r.ID, ravi.ID, "Too spicy", 2)
	if err != nil {
		t.Fatalf("AddReview R2: %v", err)
	}

	if len(updated.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(updated.Reviews))
	}
	first, second := updated.Reviews[0], updated.Reviews[1]
	if first.UserID != asha.ID || first.Text != "Great biryani" || first.Rating != 5 {
		t.Fatalf("first review changed: %+v", first)
	}
	if second.UserID != ravi.ID || second.Text != "Too spicy" {
		t.Fatalf("second review = %+v", second)
	}
	if first.User == nil || first.User.Username != "asha" || first.User.Email != "" {
		t.Fatalf("first author = %+v, want username without email", first.User)
	}
	if updated.AverageRating != 3.5 {
		t.Fatalf("averageRating = %v, want 3.5", updated.AverageRating)
	}
}

func TestAddReviewErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	cases := []struct {
		name         string
		restaurantID string
		userID       string
		text         string
		rating       float64
		kind         apperr.Kind
	}{
		{"missing restaurant", "missing", asha.ID, "ok", 3, apperr.KindNotFound},
		{"empty text", r.ID, asha.ID, " ", 3, apperr.KindValidation},
		{"rating too high", r.ID, asha.ID, "ok", 6, apperr.KindValidation},
		{"negative rating", r.ID, asha.ID, "ok", -1, apperr.KindValidation},
		{"missing user id", r.ID, "", "ok", 3, apperr.KindValidation},
		{"unknown user", r.ID, "u-ghost", "ok", 3, apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddReview(ctx, tc.restaurantID, tc.userID, tc.text, tc.rating)
			if got := apperr.KindOf(err); got != tc.kind {
				t.Fatalf("kind = %s (%v), want %s", got, err, tc.kind)
			}
		})
	}

	got, err := svc.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reviews) != 0 {
		t.Fatalf("failed reviews were stored: %+v", got.Reviews)
	}
}

func TestListReviewsWithDeletedUser(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	if _, err := svc.AddReview(ctx, r.ID, asha.ID, "Lovely", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddReview(ctx, r.ID, ravi.ID, "Fine", 3); err != nil {
		t.Fatal(err)
	}
	dir.remove(ravi.ID)

	views, err := svc.ListReviews(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d reviews, want 2", len(views))
	}
	if views[0].ReviewText != "Lovely" || views[0].User == nil || views[0].User.Email != asha.Email {
		t.Fatalf("first view = %+v", views[0])
	}
	if views[1].ReviewText != "Fine" || views[1].User != nil {
		t.Fatalf("second view = %+v, want nil user", views[1])
	}

	if _, err := svc.ListReviews(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("ListReviews on missing restaurant error = %v", err)
	}
}

func TestConcurrentAddReviewLosesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := asha.ID
			if i%2 == 1 {
				userID = ravi.ID
			}
			if _, err := svc.AddReview(ctx, r.ID, userID, fmt.Sprintf("review %d", i), 4); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("AddReview: %v", err)
	}

	got, err := svc.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reviews) != n {
		t.Fatalf("got %d reviews, want %d", len(got.Reviews), n)
	}
}

func TestByMinRating(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, rating := range []float64{2, 3, 4, 5} {
		createRestaurant(t, svc, fmt.Sprintf("R%v", rating), rating)
	}

	got, err := svc.ByMinRating(ctx, 3)
	if err != nil {
		t.Fatalf("ByMinRating: %v", err)
	}
	names := map[string]bool{}
	for _, r := range got {
		names[r.Name] = true
	}
	if len(got) != 3 || !names["R3"] || !names["R4"] || !names["R5"] {
		t.Fatalf("ByMinRating(3) = %v", names)
	}

	above, err := svc.ByMinRating(ctx, 6)
	if err != nil || len(above) != 0 {
		t.Fatalf("ByMinRating(6) = %d restaurants, %v; want none", len(above), err)
	}
	below, err := svc.ByMinRating(ctx, -1)
	if err != nil || len(below) != 4 {
		t.Fatalf("ByMinRating(-1) = %d restaurants, %v; want all 4", len(below), err)
	}
}

func TestQueriesReturnEmptySlices(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	createRestaurant(t, svc, "Spice Hub", 4)

	byCuisine, err := svc.ByCuisine(ctx, "Thai")
	if err != nil || byCuisine == nil || len(byCuisine) != 0 {
		t.Fatalf("ByCuisine = %v, %v", byCuisine, err)
	}
	byCity, err := svc.ByLocation(ctx, "Pune")
	if err != nil || len(byCity) != 1 {
		t.Fatalf("ByLocation = %v, %v", byCity, err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	r := createRestaurant(t, svc, "Spice Hub", 4)

	city := "Mumbai"
	updated, err := svc.Update(ctx, r.ID, store.RestaurantPatch{City: &city})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.City != "Mumbai" || updated.Name != "Spice Hub" {
		t.Fatalf("Update merged wrongly: %+v", updated)
	}

	empty := ""
	if _, err := svc.Update(ctx, r.ID, store.RestaurantPatch{Name: &empty}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank name error = %v", err)
	}
	if _, err := svc.Update(ctx, "missing", store.RestaurantPatch{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("empty patch on missing restaurant error = %v", err)
	}

	removed, err := svc.Delete(ctx, r.ID)
	if err != nil || removed.ID != r.ID {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	if _, err := svc.Delete(ctx, r.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second Delete error = %v", err)
	}
}
