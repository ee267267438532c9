package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
	"github.com/RodrigoSHL/waste-manager-nx/internal/repository"
	"github.com/RodrigoSHL/waste-manager-nx/internal/service"
)

// Seed loads demo data for development environments. It is a no-op once any
// disposer exists. Relations and prices go through the services so the ledger
// is populated by the same transition path production writes use.
func Seed(ctx context.Context, database *gorm.DB, log zerolog.Logger) error {
	catalog := repository.NewCatalogRepository(database)
	relations := repository.NewRelationRepository(database)
	prices := repository.NewPriceRepository(database)

	relationSvc := service.NewRelationService(relations, catalog)
	priceSvc := service.NewPriceService(prices, relations, catalog, nil, nil)

	existing, err := catalog.ListDisposers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info().Msg("seed skipped, disposers already present")
		return nil
	}

	kg, err := catalog.EnsureUom(ctx, "kg", "Kilogram")
	if err != nil {
		return err
	}
	if _, err := catalog.EnsureUom(ctx, "ton", "Metric ton"); err != nil {
		return err
	}
	clp, err := catalog.EnsureCurrency(ctx, "CLP", "$", 0)
	if err != nil {
		return err
	}
	if _, err := catalog.EnsureCurrency(ctx, "USD", "US$", 2); err != nil {
		return err
	}

	wastes, err := seedHierarchy(ctx, catalog)
	if err != nil {
		return err
	}

	disposers, err := seedDisposers(ctx, catalog)
	if err != nil {
		return err
	}

	// every disposer trades every seeded waste; prices spread so the
	// comparison view has something to rank
	base := decimal.NewFromInt(180)
	step := decimal.NewFromInt(35)
	source := "seed"
	for i, disposer := range disposers {
		for j, waste := range wastes {
			minLot := decimal.NewFromInt(50)
			lead := 5 + i
			_, err := relationSvc.Create(ctx, service.CreateRelationInput{
				DisposerID:   disposer,
				WasteID:      waste,
				UomID:        kg.ID,
				CurrencyID:   clp.ID,
				MinLot:       &minLot,
				LeadTimeDays: &lead,
			})
			if err != nil {
				return fmt.Errorf("seed relation: %w", err)
			}

			price := base.Add(step.Mul(decimal.NewFromInt(int64(i + j))))
			if _, err := priceSvc.RecordPrice(ctx, service.RecordPriceInput{
				DisposerID:  disposer,
				WasteID:     waste,
				Price:       price,
				EffectiveAt: time.Now().AddDate(0, -1, 0),
				Source:      &source,
			}); err != nil {
				return fmt.Errorf("seed initial price: %w", err)
			}

			// a second transition on the first relation so the demo
			// history has a closed period
			if i == 0 && j == 0 {
				if _, err := priceSvc.RecordPrice(ctx, service.RecordPriceInput{
					DisposerID: disposer,
					WasteID:    waste,
					Price:      price.Add(decimal.NewFromInt(15)),
					Source:     &source,
				}); err != nil {
					return fmt.Errorf("seed price transition: %w", err)
				}
			}
		}
	}

	log.Info().
		Int("disposers", len(disposers)).
		Int("wastes", len(wastes)).
		Msg("seed data loaded")
	return nil
}

func seedHierarchy(ctx context.Context, catalog *repository.CatalogRepository) ([]uuid.UUID, error) {
	plastics, err := catalog.CreateWasteType(ctx, model.WasteType{Code: "PLASTIC", Name: "Plastics"})
	if err != nil {
		return nil, err
	}
	metals, err := catalog.CreateWasteType(ctx, model.WasteType{Code: "METAL", Name: "Metals"})
	if err != nil {
		return nil, err
	}

	pet, err := catalog.CreateWasteCategory(ctx, model.WasteCategory{
		WasteTypeID: plastics.ID, Code: "PET", Name: "PET containers",
	})
	if err != nil {
		return nil, err
	}
	alu, err := catalog.CreateWasteCategory(ctx, model.WasteCategory{
		WasteTypeID: metals.ID, Code: "ALU", Name: "Aluminium scrap",
	})
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, w := range []model.Waste{
		{WasteCategoryID: &pet.ID, Code: "PET-CLEAR", Name: "Clear PET bottles"},
		{WasteCategoryID: &pet.ID, Code: "PET-COLOR", Name: "Colored PET bottles"},
		{WasteCategoryID: &alu.ID, Code: "ALU-CANS", Name: "Aluminium cans"},
	} {
		saved, err := catalog.CreateWaste(ctx, w)
		if err != nil {
			return nil, err
		}
		ids = append(ids, saved.ID)
	}
	return ids, nil
}

func seedDisposers(ctx context.Context, catalog *repository.CatalogRepository) ([]uuid.UUID, error) {
	phone := "+56 2 2345 6789"
	role := "Commercial"
	seedRows := []model.Disposer{
		{
			LegalName: "EcoRecycle SpA",
			TaxID:     "76.123.456-7",
			Contacts: []model.DisposerContact{
				{ContactName: "Carla Núñez", Email: "carla@ecorecycle.cl", Phone: &phone, Role: &role, IsPrimary: true},
			},
		},
		{
			LegalName: "Valle Verde Ltda",
			TaxID:     "77.987.654-3",
			Contacts: []model.DisposerContact{
				{ContactName: "Pedro Soto", Email: "pedro@valleverde.cl", IsPrimary: true},
			},
		},
		{
			LegalName: "Andes Recuperación SA",
			TaxID:     "78.456.123-9",
		},
	}

	var ids []uuid.UUID
	for _, row := range seedRows {
		saved, err := catalog.CreateDisposer(ctx, row)
		if err != nil {
			return nil, err
		}
		ids = append(ids, saved.ID)
	}
	return ids, nil
}
