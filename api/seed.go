package api

import (
	"fmt"

	"github.com/garnizeh/fieldops/pkg/models"
)

// Demo accounts created by Seed. Passwords satisfy the client-side rules.
const (
	DemoAdminEmail    = "admin@fieldops.dev"
	DemoEngineerEmail = "engineer@fieldops.dev"
	DemoUserEmail     = "user@fieldops.dev"
	DemoPassword      = "Fieldops#2024"
)

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Seed fills s with demo accounts, tickets and hazards.
func Seed(s *MemStore) error {
	signups := []models.Signup{
		{Name: "Ada Admin", Email: DemoAdminEmail, Password: DemoPassword, Phone: "9000000001", Address: "1 Control Room", Pincode: "560001", Role: models.RoleAdmin},
		{Name: "Eli Engineer", Email: DemoEngineerEmail, Password: DemoPassword, Phone: "9000000002", Address: "2 Depot Road", Pincode: "560002", Role: models.RoleEngineer, Specialization: "Plumbing", Availability: weekdays},
		{Name: "Pat Pending", Email: "pending@fieldops.dev", Password: DemoPassword, Phone: "9000000003", Address: "3 Depot Road", Pincode: "560003", Role: models.RoleEngineer, Specialization: "Electrical", Availability: weekdays[:5]},
		{Name: "Uma User", Email: DemoUserEmail, Password: DemoPassword, Phone: "9000000004", Address: "4 Main Street", Pincode: "560004", Role: models.RoleUser},
	}
	for _, su := range signups {
		if _, err := s.Register(su); err != nil {
			return fmt.Errorf("seed account %s: %w", su.Email, err)
		}
	}
	if _, err := s.Approve(DemoEngineerEmail, true); err != nil {
		return fmt.Errorf("seed approval: %w", err)
	}

	s.CreateTask(models.TicketInput{ServiceType: "Plumbing", Priority: models.PriorityHigh, Description: "Burst pipe in kitchen", Address: "4 Main Street", Pincode: "560004", UserEmail: DemoUserEmail}, DemoEngineerEmail)
	s.CreateTask(models.TicketInput{ServiceType: "Electrical", Priority: models.PriorityLow, Description: "Flickering hallway light", Address: "4 Main Street", Pincode: "560004", UserEmail: DemoUserEmail}, "")

	s.CreateHazard(models.HazardInput{HazardType: "Gas leak", Description: "Smell of gas near meter", RiskLevel: models.PriorityHigh, Address: "7 Market Lane", Pincode: "560007"}, DemoEngineerEmail)
	s.CreateHazard(models.HazardInput{HazardType: "Wet floor", Description: "Flooded basement stairs", RiskLevel: models.PriorityMedium, Address: "2 Depot Road", Pincode: "560002"}, DemoEngineerEmail)
	return nil
}
