package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

func newRestaurantService(env *testEnv) *RestaurantService {
	return NewRestaurantService(env.db, env.restaurants, env.users, env.enforcer)
}

func sampleInput() RestaurantInput {
	return RestaurantInput{
		Title:         "Konoba Ćatovića Mlini",
		Address:       entity.Address{Street: "Morinj bb", City: "Kotor", Country: "ME"},
		Cuisine:       []string{"seafood", "mediterranean"},
		PriceRange:    entity.PriceExpensive,
		Menu:          []entity.MenuItem{{Category: "mains", Name: "Brudet", Price: 18}},
		ContactPerson: entity.ContactPerson{Name: "Jovana", Phone: "+382 67 000 000"},
	}
}

func TestSubmitForcesPending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)
	owner := env.user(t, "owner@example.com", entity.RoleRegistered)

	in := sampleInput()
	in.ContactPerson = entity.ContactPerson{IsOwner: true}
	rest, err := svc.Submit(ctx, owner.ID, in)
	require.NoError(t, err)

	got := env.reload(t, rest.ID)
	assert.Equal(t, entity.ModerationPending, got.Moderation.Status)
	assert.Nil(t, got.Moderation.ModeratorID)
	assert.Nil(t, got.Moderation.ReviewedAt)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, owner.Email, got.Moderation.ContactPerson.Email)
	assert.True(t, got.Moderation.ContactPerson.IsOwner)
	assert.Equal(t, []string{"seafood", "mediterranean"}, []string(got.Cuisine))
	assert.Equal(t, entity.Rating{}, got.Rating)
}

func TestSubmitAsGuest(t *testing.T) {
	env := newTestEnv(t)
	svc := newRestaurantService(env)

	rest, err := svc.Submit(context.Background(), "", sampleInput())
	require.NoError(t, err)
	assert.Equal(t, entity.GuestOwner, rest.OwnerID)
	assert.True(t, rest.OwnedByGuest())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)

	in := sampleInput()
	in.Title = " "
	_, err := svc.Submit(ctx, "", in)
	assert.Equal(t, KindValidation, KindOf(err))

	in = sampleInput()
	in.PriceRange = "$$$$$"
	_, err = svc.Submit(ctx, "", in)
	assert.Equal(t, KindValidation, KindOf(err))

	in = sampleInput()
	in.ContactPerson = entity.ContactPerson{Name: "nobody"}
	_, err = svc.Submit(ctx, "", in)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)

	owner := env.user(t, "owner@example.com", entity.RoleRegistered)
	stranger := env.user(t, "x@example.com", entity.RoleRegistered)
	mod := env.user(t, "m@example.com", entity.RoleModerator)
	pending := env.restaurant(t, "Pending", owner.ID, entity.ModerationPending)
	approved := env.restaurant(t, "Approved", owner.ID, entity.ModerationApproved)
	env.restaurant(t, "Rejected", owner.ID, entity.ModerationRejected)

	_, err := svc.Get(ctx, "", approved.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "", pending.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.Get(ctx, stranger.ID, pending.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.Get(ctx, owner.ID, pending.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, mod.ID, pending.ID)
	assert.NoError(t, err)

	public, err := svc.List(ctx, RestaurantQuery{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)

	mine, err := svc.ListMine(ctx, owner.ID, Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)
	mod := env.user(t, "m@example.com", entity.RoleModerator)
	moderation := env.moderation(t)

	for _, title := range []string{"Pizzeria Napoli", "Konoba More"} {
		in := sampleInput()
		in.Title = title
		if title == "Pizzeria Napoli" {
			in.Cuisine = []string{"italian"}
			in.PriceRange = entity.PriceBudget
			in.Address.City = "Budva"
		}
		rest, err := svc.Submit(ctx, "", in)
		require.NoError(t, err)
		_, err = moderation.Moderate(ctx, mod.ID, ModerateInput{RestaurantID: rest.ID, Status: entity.ModerationApproved})
		require.NoError(t, err)
	}

	byCity, err := svc.List(ctx, RestaurantQuery{City: "budva"})
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, "Pizzeria Napoli", byCity[0].Title)

	byCuisine, err := svc.List(ctx, RestaurantQuery{Cuisine: "seafood"})
	require.NoError(t, err)
	require.Len(t, byCuisine, 1)
	assert.Equal(t, "Konoba More", byCuisine[0].Title)

	byPrice, err := svc.List(ctx, RestaurantQuery{Price: entity.PriceBudget})
	require.NoError(t, err)
	assert.Len(t, byPrice, 1)

	byTitle, err := svc.List(ctx, RestaurantQuery{Query: "KONOBA"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	paged, err := svc.List(ctx, RestaurantQuery{Page: Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestOwnerUpdateKeepsModeration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)

	owner := env.user(t, "owner@example.com", entity.RoleRegistered)
	other := env.user(t, "x@example.com", entity.RoleAdmin)
	rest := env.restaurant(t, "Old", owner.ID, entity.ModerationRejected)

	price := entity.PriceLuxury
	updated, err := svc.Update(ctx, owner.ID, rest.ID, RestaurantPatch{
		Title:      strPtr("New"),
		PriceRange: &price,
		Cuisine:    &[]string{"balkan"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, entity.PriceLuxury, updated.PriceRange)
	assert.Equal(t, []string{"balkan"}, []string(updated.Cuisine))
	assert.Equal(t, entity.ModerationRejected, updated.Moderation.Status)

	_, err = svc.Update(ctx, other.ID, rest.ID, RestaurantPatch{Title: strPtr("Hijacked")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, owner.ID, rest.ID, RestaurantPatch{Title: strPtr("")})
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "New", env.reload(t, rest.ID).Title)
}

func TestDeleteIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)
	reviews := newReviewService(env)

	owner := env.user(t, "owner@example.com", entity.RoleRegistered)
	mod := env.user(t, "m@example.com", entity.RoleModerator)
	admin := env.user(t, "a@example.com", entity.RoleAdmin)
	rest := env.restaurant(t, "Konoba", owner.ID, entity.ModerationApproved)
	_, err := reviews.Create(ctx, owner.ID, rest.ID, ReviewInput{Rating: 5})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, owner.ID, rest.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, mod.ID, rest.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin.ID, rest.ID))

	_, err = env.restaurants.FindByID(ctx, rest.ID)
	assert.Error(t, err)
	left, err := env.reviews.ListByRestaurant(ctx, rest.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.Equal(t, KindNotFound, KindOf(svc.Delete(ctx, admin.ID, rest.ID)))
}

func TestDeleteClearsFavorites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newRestaurantService(env)
	favorites := NewFavoriteService(env.db, env.likes, env.restaurants, env.users)

	admin := env.user(t, "a@example.com", entity.RoleAdmin)
	ana := env.user(t, "ana@example.com", entity.RoleRegistered)
	ivan := env.user(t, "ivan@example.com", entity.RoleRegistered)
	gone := env.restaurant(t, "Konoba", entity.GuestOwner, entity.ModerationApproved)
	kept := env.restaurant(t, "Pod Volat", entity.GuestOwner, entity.ModerationApproved)

	for _, uid := range []string{ana.ID, ivan.ID} {
		_, err := favorites.Toggle(ctx, uid, gone.ID)
		require.NoError(t, err)
	}
	_, err := favorites.Toggle(ctx, ana.ID, kept.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, admin.ID, gone.ID))

	a, err := env.users.FindByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, []string(a.Favorites))
	i, err := env.users.FindByID(ctx, ivan.ID)
	require.NoError(t, err)
	assert.Empty(t, i.Favorites)

	list, err := favorites.List(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)
}
