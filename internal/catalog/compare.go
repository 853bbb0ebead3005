package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// CompareMaterials loads the requested material specs and derives
// comparison highlights. Unknown IDs are an error, not a silent skip.
func (s *service) CompareMaterials(ctx context.Context, ids []uuid.UUID) (*MaterialComparison, error) {
	if len(ids) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least two materials are required to compare")
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	specs, err := s.repo.FindMaterialSpecsByIDs(ctx, unique)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material specs")
	}

	byID := make(map[uuid.UUID]*models.MaterialSpec, len(specs))
	for i := range specs {
		byID[specs[i].ID] = &specs[i]
	}
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("material %s not found", id))
		}
	}

	ordered := make([]*models.MaterialSpec, 0, len(unique))
	for _, id := range unique {
		ordered = append(ordered, byID[id])
	}
	return buildComparison(ordered), nil
}

// buildComparison derives the highlight fields from the requested specs,
// preserving request order.
func buildComparison(specs []*models.MaterialSpec) *MaterialComparison {
	comparison := &MaterialComparison{
		Materials:      make([]MaterialSpecDTO, 0, len(specs)),
		AllOutdoorSafe: true,
	}

	var mostDurable, cheapest *models.MaterialSpec
	for _, spec := range specs {
		comparison.Materials = append(comparison.Materials, NewMaterialSpecDTO(spec))
		if !spec.OutdoorSafe {
			comparison.AllOutdoorSafe = false
		}
		if mostDurable == nil || spec.DurabilityYears > mostDurable.DurabilityYears {
			mostDurable = spec
		}
		if cheapest == nil || spec.PricePerSquareFt.LessThan(cheapest.PricePerSquareFt) {
			cheapest = spec
		}
	}

	comparison.MostDurable = mostDurable.Material.String()
	comparison.CheapestPerSqFt = cheapest.Material.String()
	return comparison
}
