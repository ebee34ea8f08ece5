package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/retailcart/cart-service/api/responses"
	"github.com/retailcart/cart-service/internal/promotions"
	pkgerrors "github.com/retailcart/cart-service/pkg/errors"
	"github.com/retailcart/cart-service/pkg/logger"
)

// PromotionView is the read-only catalog entry exposed to storefronts, so
// they can render available offers without knowing the discount internals.
type PromotionView struct {
	Code          string      `json:"code"`
	Description   string      `json:"description"`
	DiscountType  string      `json:"discountType"`
	DiscountValue json.Number `json:"discountValue"`
	StartsOn      string      `json:"startsOn"`
	EndsOn        string      `json:"endsOn"`
	Combinable    bool        `json:"combinable"`
	Active        bool        `json:"active"`
}

func newPromotionView(p *promotions.Promotion, today time.Time) PromotionView {
	return PromotionView{
		Code:          p.Code,
		Description:   p.Description,
		DiscountType:  p.Kind.String(),
		DiscountValue: json.Number(p.Value.Round(2).String()),
		StartsOn:      promotions.DateOnly(p.StartsOn).Format(time.DateOnly),
		EndsOn:        promotions.DateOnly(p.EndsOn).Format(time.DateOnly),
		Combinable:    p.Combinable,
		Active:        p.ActiveOn(today),
	}
}

// PromotionList returns every catalog promotion. The clock decides the
// Active flag; nil falls back to wall-clock time.
func PromotionList(catalog promotions.Catalog, logg *logger.Logger, clock func() time.Time) http.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		promos, err := catalog.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions"))
			return
		}

		now := clock()
		views := make([]PromotionView, 0, len(promos))
		for _, promo := range promos {
			views = append(views, newPromotionView(promo, now))
		}
		responses.WriteSuccess(w, views)
	}
}

// PromotionFetch returns one catalog promotion by code.
func PromotionFetch(catalog promotions.Catalog, logg *logger.Logger, clock func() time.Time) http.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		promo, err := catalog.Lookup(r.Context(), code)
		if err != nil {
			if errors.Is(err, promotions.ErrNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch promotion"))
			return
		}

		responses.WriteSuccess(w, newPromotionView(promo, clock()))
	}
}
