package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Irvanev/hvala-dvisor-sub000/authz"
	"github.com/Irvanev/hvala-dvisor-sub000/entity"
	"github.com/Irvanev/hvala-dvisor-sub000/pkg/logging"
	"github.com/Irvanev/hvala-dvisor-sub000/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RestaurantInput is a submission. Moderation state, rating and likes are
// never taken from the caller.
type RestaurantInput struct {
	Title         string
	Description   string
	Address       entity.Address
	Location      entity.GeoPoint
	MainImage     string
	Gallery       []string
	Contact       entity.Contact
	Cuisine       []string
	Features      []string
	PriceRange    entity.PriceRange
	Menu          []entity.MenuItem
	ContactPerson entity.ContactPerson
}

// RestaurantPatch lists the owner-editable content fields.
type RestaurantPatch struct {
	Title       *string
	Description *string
	Address     *entity.Address
	Location    *entity.GeoPoint
	MainImage   *string
	Gallery     *[]string
	Contact     *entity.Contact
	Cuisine     *[]string
	Features    *[]string
	PriceRange  *entity.PriceRange
	Menu        *[]entity.MenuItem
}

type RestaurantService struct {
	db          *gorm.DB
	restaurants *repository.RestaurantRepository
	users       *repository.UserRepository
	enforcer    *authz.Enforcer
}

func NewRestaurantService(db *gorm.DB, restaurants *repository.RestaurantRepository, users *repository.UserRepository, enforcer *authz.Enforcer) *RestaurantService {
	return &RestaurantService{db: db, restaurants: restaurants, users: users, enforcer: enforcer}
}

// callerRole is guest for anonymous or unknown callers.
func (s *RestaurantService) callerRole(ctx context.Context, userID string) (*entity.User, entity.Role, error) {
	if userID == "" {
		return nil, entity.RoleGuest, nil
	}
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entity.RoleGuest, nil
	}
	if err != nil {
		return nil, "", backend("failed to load caller", err)
	}
	return u, u.Role, nil
}

func validateContent(title string, price entity.PriceRange, menu []entity.MenuItem) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title is required")
	}
	if price != "" && !price.Valid() {
		return invalid("priceRange must be one of $, $$, $$$, $$$$")
	}
	for _, m := range menu {
		if strings.TrimSpace(m.Name) == "" || m.Price < 0 {
			return invalid("menu items need a name and a non-negative price")
		}
	}
	return nil
}

// Submit stores a new listing as pending. Anonymous submissions are owned by
// the guest sentinel.
func (s *RestaurantService) Submit(ctx context.Context, callerID string, in RestaurantInput) (*entity.Restaurant, error) {
	if err := validateContent(in.Title, in.PriceRange, in.Menu); err != nil {
		return nil, err
	}
	u, role, err := s.callerRole(ctx, callerID)
	if err != nil {
		return nil, err
	}

	owner := entity.GuestOwner
	if u != nil {
		if !s.enforcer.Allowed(role, authz.ObjRestaurants, authz.ActSubmit) {
			return nil, forbidden("you cannot submit restaurants")
		}
		owner = u.ID
	}

	cp := in.ContactPerson
	if u != nil && cp.IsOwner {
		if cp.Name == "" {
			cp.Name = u.DisplayName
		}
		if cp.Email == "" {
			cp.Email = u.Email
		}
	}
	if strings.TrimSpace(cp.Email) == "" && strings.TrimSpace(cp.Phone) == "" {
		return nil, invalid("contact person needs an email or a phone number")
	}

	rest := &entity.Restaurant{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Address:     in.Address,
		Location:    in.Location,
		MainImage:   in.MainImage,
		Gallery:     datatypes.JSONSlice[string](in.Gallery),
		Contact:     in.Contact,
		Cuisine:     datatypes.JSONSlice[string](in.Cuisine),
		Features:    datatypes.JSONSlice[string](in.Features),
		PriceRange:  in.PriceRange,
		Menu:        datatypes.JSONSlice[entity.MenuItem](in.Menu),
		OwnerID:     owner,
		Moderation: entity.Moderation{
			Status:        entity.ModerationPending,
			ContactPerson: cp,
		},
	}
	if err := s.restaurants.Create(ctx, rest); err != nil {
		return nil, backend("failed to submit restaurant", err)
	}
	logging.Ctx(ctx).Info().Str("restaurant_id", rest.ID).Str("owner_id", owner).Msg("restaurant submitted")
	return rest, nil
}

// Get hides listings that are not approved from everyone but their owner
// and moderators.
func (s *RestaurantService) Get(ctx context.Context, callerID, id string) (*entity.Restaurant, error) {
	rest, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "restaurant")
	}
	if rest.Moderation.Status == entity.ModerationApproved {
		return rest, nil
	}
	if callerID != "" && callerID == rest.OwnerID {
		return rest, nil
	}
	_, role, err := s.callerRole(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if s.enforcer.Allowed(role, authz.ObjRestaurants, authz.ActModerate) {
		return rest, nil
	}
	return nil, notFound("restaurant not found")
}

type RestaurantQuery struct {
	City    string
	Cuisine string
	Price   entity.PriceRange
	Query   string
	Page    Page
}

// List returns approved restaurants only.
func (s *RestaurantService) List(ctx context.Context, q RestaurantQuery) ([]entity.Restaurant, error) {
	if q.Price != "" && !q.Price.Valid() {
		return nil, invalid("priceRange must be one of $, $$, $$$, $$$$")
	}
	page := q.Page.Normalize()
	rests, err := s.restaurants.List(ctx, repository.RestaurantFilter{
		Status:  entity.ModerationApproved,
		City:    strings.TrimSpace(q.City),
		Cuisine: strings.TrimSpace(q.Cuisine),
		Price:   q.Price,
		Query:   strings.TrimSpace(q.Query),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return nil, backend("failed to load restaurants", err)
	}
	return rests, nil
}

// ListMine returns the caller's submissions in every moderation state.
func (s *RestaurantService) ListMine(ctx context.Context, callerID string, page Page) ([]entity.Restaurant, error) {
	if callerID == "" {
		return nil, unauthenticated("authentication required")
	}
	page = page.Normalize()
	rests, err := s.restaurants.List(ctx, repository.RestaurantFilter{OwnerID: callerID, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, backend("failed to load restaurants", err)
	}
	return rests, nil
}

// Update edits content fields. The moderation state is left as it is.
func (s *RestaurantService) Update(ctx context.Context, callerID, id string, p RestaurantPatch) (*entity.Restaurant, error) {
	if callerID == "" {
		return nil, unauthenticated("authentication required")
	}
	rest, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "restaurant")
	}
	if rest.OwnerID != callerID {
		return nil, forbidden("only the owner can edit this restaurant")
	}

	updates := map[string]any{}
	if p.Title != nil {
		updates["title"] = strings.TrimSpace(*p.Title)
		rest.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Address != nil {
		updates["address_street"] = p.Address.Street
		updates["address_city"] = p.Address.City
		updates["address_postal_code"] = p.Address.PostalCode
		updates["address_country"] = p.Address.Country
	}
	if p.Location != nil {
		updates["location_lat"] = p.Location.Lat
		updates["location_lng"] = p.Location.Lng
	}
	if p.MainImage != nil {
		updates["main_image"] = *p.MainImage
	}
	if p.Gallery != nil {
		updates["gallery"] = datatypes.JSONSlice[string](*p.Gallery)
	}
	if p.Contact != nil {
		updates["contact_phone"] = p.Contact.Phone
		updates["contact_website"] = p.Contact.Website
		updates["contact_social"] = p.Contact.Social
	}
	if p.Cuisine != nil {
		updates["cuisine"] = datatypes.JSONSlice[string](*p.Cuisine)
	}
	if p.Features != nil {
		updates["features"] = datatypes.JSONSlice[string](*p.Features)
	}
	if p.PriceRange != nil {
		updates["price_range"] = *p.PriceRange
		rest.PriceRange = *p.PriceRange
	}
	var menu []entity.MenuItem
	if p.Menu != nil {
		menu = *p.Menu
		updates["menu"] = datatypes.JSONSlice[entity.MenuItem](menu)
	}
	if err := validateContent(rest.Title, rest.PriceRange, menu); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return rest, nil
	}

	if err := s.restaurants.UpdateContent(ctx, id, updates); err != nil {
		return nil, backend("failed to update restaurant", err)
	}
	updated, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "restaurant")
	}
	return updated, nil
}

// Delete removes a restaurant with its likes and reviews, and drops it from
// the favorites of every user who liked it.
func (s *RestaurantService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return unauthenticated("authentication required")
	}
	_, role, err := s.callerRole(ctx, callerID)
	if err != nil {
		return err
	}
	if !s.enforcer.Allowed(role, authz.ObjRestaurants, authz.ActDelete) {
		return forbidden("only administrators can delete restaurants")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := repository.NewRestaurantRepository(tx).Delete(ctx, id)
		if err != nil {
			return backend("failed to delete restaurant", err)
		}
		if rows == 0 {
			return notFound("restaurant not found")
		}
		likes := repository.NewLikeRepository(tx)
		likers, err := likes.UserIDsByRestaurant(ctx, id)
		if err != nil {
			return backend("failed to load likes", err)
		}
		users := repository.NewUserRepository(tx)
		for _, uid := range likers {
			u, err := users.FindByID(ctx, uid)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return backend("failed to load user", err)
			}
			if err := users.SaveFavorites(ctx, uid, withoutID(u.Favorites, id)); err != nil {
				return backend("failed to update favorites", err)
			}
		}
		if err := likes.DeleteByRestaurant(ctx, id); err != nil {
			return backend("failed to delete likes", err)
		}
		if err := repository.NewReviewRepository(tx).DeleteByRestaurant(ctx, id); err != nil {
			return backend("failed to delete reviews", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Warn().Str("restaurant_id", id).Str("caller_id", callerID).Msg("restaurant deleted")
	return nil
}
