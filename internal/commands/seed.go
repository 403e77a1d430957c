package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/spf13/cobra"
)

type seedTenant struct {
	property string
	draft    services.TenantDraft
}

func seedProperties() []services.PropertyDraft {
	return []services.PropertyDraft{
		{Name: "Riverside Apartments", Type: models.PropertyResidential, Address: "Westlands, Nairobi", TotalUnits: 24, OccupiedUnits: 22, MonthlyRent: 840000, Amenities: []string{"Parking", "Security", "Borehole"}},
		{Name: "Commercial Plaza", Type: models.PropertyCommercial, Address: "CBD, Nairobi", TotalUnits: 15, OccupiedUnits: 13, MonthlyRent: 1250000, Amenities: []string{"Lifts", "Backup generator"}},
		{Name: "Garden Courts", Type: models.PropertyResidential, Address: "Karen, Nairobi", TotalUnits: 18, OccupiedUnits: 16, MonthlyRent: 720000, Amenities: []string{"Garden", "Playground"}},
		{Name: "Office Complex", Type: models.PropertyCommercial, Address: "Upper Hill, Nairobi", TotalUnits: 8, OccupiedUnits: 7, MonthlyRent: 560000},
		{Name: "Sunset Villas", Type: models.PropertyResidential, Address: "Kileleshwa, Nairobi", TotalUnits: 12, OccupiedUnits: 10, MonthlyRent: 480000, Status: models.PropertyMaintenance},
		{Name: "Tech Hub", Type: models.PropertyCommercial, Address: "Kilimani, Nairobi", TotalUnits: 20, OccupiedUnits: 18, MonthlyRent: 900000, Amenities: []string{"Fibre internet"}},
	}
}

func seedTenants() []seedTenant {
	tenant := func(property, name, phone, email, unit string, rent, deposit int64, start, end string, status models.TenantStatus) seedTenant {
		return seedTenant{property: property, draft: services.TenantDraft{
			FullName:    name,
			Phone:       phone,
			Email:       &email,
			Unit:        unit,
			MonthlyRent: rent,
			DepositPaid: deposit,
			LeaseStart:  &start,
			LeaseEnd:    &end,
			Status:      status,
		}}
	}
	return []seedTenant{
		tenant("Riverside Apartments", "Alice Wanjiku", "+254 712 345 678", "alice.wanjiku@email.com", "A1", 35000, 70000, "2024-01-01", "2024-12-31", models.TenantCurrent),
		tenant("Commercial Plaza", "John Kimani", "+254 723 456 789", "john.kimani@email.com", "Shop 12", 85000, 170000, "2023-06-01", "2025-05-31", models.TenantCurrent),
		tenant("Garden Courts", "Mary Atieno", "+254 734 567 890", "mary.atieno@email.com", "B3", 28000, 56000, "2024-03-01", "2025-02-28", models.TenantOverdue),
		tenant("Office Complex", "Peter Mwangi", "+254 745 678 901", "peter.mwangi@email.com", "Floor 2", 120000, 240000, "2023-09-01", "2025-08-31", models.TenantCurrent),
		tenant("Sunset Villas", "Grace Njeri", "+254 756 789 012", "grace.njeri@email.com", "Villa 5", 45000, 90000, "2024-02-01", "2025-01-31", models.TenantPending),
		tenant("Tech Hub", "David Ochieng", "+254 767 890 123", "david.ochieng@email.com", "Office 8", 55000, 110000, "2023-11-01", "2025-10-31", models.TenantCurrent),
	}
}

// SeedCmd loads the sample portfolio into an empty database.
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample properties, tenants and this month's bills",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, _ := cmd.Flags().GetString("period")
			if period == "" {
				period = time.Now().UTC().Format(models.PeriodLayout)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate schema: %w", err)
			}
			return seed(cmd.Context(), a.services(), period, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("period", "", "Billing period to generate (YYYY-MM); defaults to the current month")

	return cmd
}

// seed refuses to run against a database that already holds properties.
func seed(ctx context.Context, svc *serviceSet, period string, out io.Writer) error {
	existing, err := svc.properties.List(ctx, services.PropertyFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("database already holds %d properties; seed expects an empty database", len(existing))
	}

	ids := make(map[string]string)
	for _, draft := range seedProperties() {
		p, err := svc.properties.Create(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to seed property %s: %w", draft.Name, err)
		}
		ids[p.Name] = p.ID
	}

	for _, t := range seedTenants() {
		id := ids[t.property]
		t.draft.PropertyID = &id
		if _, err := svc.tenants.Create(ctx, t.draft); err != nil {
			return fmt.Errorf("failed to seed tenant %s: %w", t.draft.FullName, err)
		}
	}

	result, err := svc.billing.GenerateMonthly(ctx, period, 0)
	if err != nil {
		return fmt.Errorf("failed to generate %s bills: %w", period, err)
	}

	fmt.Fprintf(out, "Seeded %d properties, %d tenants and %d bills for %s\n",
		len(ids), len(seedTenants()), len(result.Created), period)
	return nil
}
