package addresses

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/calebmoran/printworks-backend/api/responses"
	"github.com/calebmoran/printworks-backend/api/validators"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/maps"
)

const maxAutocompleteInput = 120

type placesClient interface {
	Autocomplete(ctx context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.PlaceDetails, error)
}

type suggestionResponse struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type placeResponse struct {
	PlaceID          string  `json:"place_id"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Autocomplete suggests shipping addresses for partial input.
func Autocomplete(client placesClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "address lookup unavailable"))
			return
		}

		input := validators.SanitizeString(r.URL.Query().Get("q"), maxAutocompleteInput)
		if input == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		req := maps.AutocompleteRequest{Input: input}
		if region := strings.TrimSpace(r.URL.Query().Get("region")); region != "" {
			req.IncludedRegionCodes = []string{strings.ToUpper(region)}
		}

		suggestions, err := client.Autocomplete(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]suggestionResponse, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, suggestionResponse{PlaceID: s.PlaceID, Description: s.Description})
		}
		responses.WriteSuccess(w, out)
	}
}

// ResolvePlace returns the canonical address for a selected suggestion.
func ResolvePlace(client placesClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "address lookup unavailable"))
			return
		}

		placeID := strings.TrimSpace(chi.URLParam(r, "placeId"))
		if placeID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "place id is required"))
			return
		}

		details, err := client.ResolvePlace(r.Context(), placeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPlaceResponse(details))
	}
}

func toPlaceResponse(details *maps.PlaceDetails) placeResponse {
	out := placeResponse{
		PlaceID:          details.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Latitude:         details.Location.Latitude,
		Longitude:        details.Location.Longitude,
	}

	var streetNumber, route string
	for _, comp := range details.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				out.City = comp.LongName
			case "administrative_area_level_1":
				out.State = comp.ShortName
			case "postal_code":
				out.PostalCode = comp.LongName
			case "country":
				out.Country = comp.ShortName
			}
		}
	}
	out.Street = strings.TrimSpace(streetNumber + " " + route)

	return out
}
