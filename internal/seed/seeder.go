package seed

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/selector"
	"github.com/zaplinker/backend/internal/utm"
	"github.com/zaplinker/backend/internal/visitor"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UIDPrefix marks users created by the seeder so Clean can find them again
const UIDPrefix = "seed-"

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Options sizes a seeding run
type Options struct {
	Users               int
	WorkspacesPerUser   int
	NumbersPerWorkspace int
	VisitsPerWorkspace  int
	// Days spreads visits over the trailing window
	Days int
}

// DevOptions is a data set large enough to make the dashboards interesting
func DevOptions() Options {
	return Options{Users: 20, WorkspacesPerUser: 3, NumbersPerWorkspace: 3, VisitsPerWorkspace: 150, Days: 60}
}

// TestOptions is the minimal data set used by integration environments
func TestOptions() Options {
	return Options{Users: 2, WorkspacesPerUser: 1, NumbersPerWorkspace: 2, VisitsPerWorkspace: 10, Days: 7}
}

// Summary counts what a run created
type Summary struct {
	Users      int
	Workspaces int
	Numbers    int
	Visits     int
}

// Seeder handles database seeding operations
type Seeder struct {
	db     *gorm.DB
	repos  *repository.Repositories
	faker  *gofakeit.Faker
	picker *selector.Picker
	now    func() time.Time
}

// NewSeeder creates a new seeder instance with a random seed
func NewSeeder(db *gorm.DB) *Seeder {
	return NewSeederWithSeed(db, uint64(time.Now().UnixNano()))
}

// NewSeederWithSeed creates a seeder whose fake data is reproducible
func NewSeederWithSeed(db *gorm.DB, seed uint64) *Seeder {
	return &Seeder{
		db:     db,
		repos:  repository.New(db),
		faker:  gofakeit.New(seed),
		picker: selector.NewPicker(),
		now:    time.Now,
	}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context) (*Summary, error) {
	return s.Seed(ctx, DevOptions())
}

// SeedTest seeds a small, predictable data set
func (s *Seeder) SeedTest(ctx context.Context) (*Summary, error) {
	return s.Seed(ctx, TestOptions())
}

// Seed creates users, workspaces and numbers, then replays synthetic visits through
// the same repository calls the redirect path uses so counters match the history.
func (s *Seeder) Seed(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{}

	logger.Log.Info("Creating users...", zap.Int("count", opts.Users))
	users, err := s.seedUsers(ctx, opts.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	summary.Users = len(users)

	for _, user := range users {
		for i := 0; i < opts.WorkspacesPerUser; i++ {
			ws, err := s.seedWorkspace(ctx, user)
			if err != nil {
				return nil, fmt.Errorf("failed to seed workspace: %w", err)
			}
			summary.Workspaces++

			numbers, err := s.seedNumbers(ctx, ws, opts.NumbersPerWorkspace)
			if err != nil {
				return nil, fmt.Errorf("failed to seed numbers: %w", err)
			}
			summary.Numbers += len(numbers)

			visits, err := s.seedVisits(ctx, ws, numbers, opts.VisitsPerWorkspace, opts.Days)
			if err != nil {
				return nil, fmt.Errorf("failed to seed visits: %w", err)
			}
			summary.Visits += visits
		}
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", summary.Users),
		zap.Int("workspaces", summary.Workspaces),
		zap.Int("numbers", summary.Numbers),
		zap.Int("visits", summary.Visits),
	)
	return summary, nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	plans := []string{string(models.PlanFree), string(models.PlanFree), string(models.PlanPro), string(models.PlanPremium)}

	for i := 0; i < count; i++ {
		user, _, err := s.repos.Users.Upsert(ctx, &models.User{
			FirebaseUID: UIDPrefix + s.faker.UUID(),
			Email:       strings.ToLower(s.faker.Username()) + "@example.com",
			DisplayName: s.faker.Name(),
			PhotoURL:    s.faker.URL(),
		})
		if err != nil {
			return nil, err
		}

		plan := models.Plan(s.faker.RandomString(plans))
		if plan != models.PlanFree {
			if err := s.repos.Users.SetPlan(ctx, user.ID, plan); err != nil {
				return nil, err
			}
			user.Plan = plan
		}
		users = append(users, user)
	}
	return users, nil
}

// customURL derives a slug from a company name, suffixed until it is free
func (s *Seeder) customURL(ctx context.Context) (string, error) {
	base := strings.Trim(slugCleaner.ReplaceAllString(strings.ToLower(s.faker.Company()), "-"), "-")
	if len(base) > models.MaxCustomURLLength-5 {
		base = strings.TrimRight(base[:models.MaxCustomURLLength-5], "-")
	}
	if base == "" {
		base = "loja"
	}

	for attempt := 0; attempt < 20; attempt++ {
		slug := fmt.Sprintf("%s-%d", base, s.faker.Number(1, 9999))
		if !models.ValidCustomURL(slug) {
			continue
		}
		taken, err := s.repos.Workspaces.CustomURLTaken(ctx, slug, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", fmt.Errorf("no free custom URL for %q", base)
}

func (s *Seeder) seedWorkspace(ctx context.Context, user *models.User) (*models.Workspace, error) {
	slug, err := s.customURL(ctx)
	if err != nil {
		return nil, err
	}

	name := s.faker.Company()
	if r := []rune(name); len(r) > models.MaxWorkspaceNameLength {
		name = strings.TrimSpace(string(r[:models.MaxWorkspaceNameLength]))
	}

	style := models.LinkStyleWaMe
	if s.faker.Number(0, 3) == 0 {
		style = models.LinkStyleAPI
	}

	ws := &models.Workspace{
		UserID:    user.ID,
		Name:      name,
		CustomURL: slug,
		LinkStyle: style,
		UTMParameters: models.UTMParameters{
			Source: s.faker.RandomString([]string{"instagram", "facebook", "google", "tiktok", ""}),
			Medium: s.faker.RandomString([]string{"bio", "cpc", "social", ""}),
		},
	}
	if err := s.repos.Workspaces.Create(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// phoneNumber returns a Brazilian mobile number in international digits
func (s *Seeder) phoneNumber() string {
	return fmt.Sprintf("55%02d9%08d", s.faker.Number(11, 99), s.faker.Number(0, 99999999))
}

func (s *Seeder) seedNumbers(ctx context.Context, ws *models.Workspace, count int) ([]models.WhatsappNumber, error) {
	numbers := make([]models.WhatsappNumber, 0, count)
	for i := 0; i < count; i++ {
		digits := s.phoneNumber()
		if !utm.ValidNumber(digits) {
			return nil, fmt.Errorf("generated invalid number %q", digits)
		}
		n := &models.WhatsappNumber{
			WorkspaceID: ws.ID,
			Number:      digits,
			Text:        fmt.Sprintf("Olá! Vim pelo link da %s", ws.Name),
			IsActive:    i == 0 || s.faker.Number(0, 4) > 0,
			Weight:      s.faker.Number(1, 5),
		}
		if err := s.repos.Numbers.Create(ctx, n); err != nil {
			return nil, err
		}
		numbers = append(numbers, *n)
	}
	return numbers, nil
}

func (s *Seeder) seedVisits(ctx context.Context, ws *models.Workspace, numbers []models.WhatsappNumber, count, days int) (int, error) {
	if days <= 0 {
		days = 1
	}
	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)

	active := make([]models.WhatsappNumber, 0, len(numbers))
	for _, n := range numbers {
		if n.IsActive {
			active = append(active, n)
		}
	}

	// A pool smaller than the visit count produces returning visitors
	pool := count/3 + 1
	recorded := 0
	for i := 0; i < count; i++ {
		ua := s.faker.UserAgent()
		if visitor.IsBot(ua) {
			continue
		}
		ip := s.faker.IPv4Address()
		key := visitor.Key(fmt.Sprintf("seed-visitor-%d", s.faker.Number(0, pool)), ip, ua)
		at := s.faker.DateRange(start, end).UTC()
		device := visitor.Classify(ua)

		if _, err := s.repos.Analytics.RecordVisit(ctx, repository.Visit{
			WorkspaceID: ws.ID,
			VisitorKey:  key,
			IP:          ip,
			UserAgent:   ua,
			Device:      device,
			At:          at,
		}); err != nil {
			return recorded, err
		}

		event := &models.AccessEvent{
			WorkspaceID: ws.ID,
			VisitorKey:  key,
			IPAddress:   ip,
			DeviceType:  device,
			Country:     s.faker.RandomString([]string{"BR", "BR", "BR", "PT", "US", "AR", ""}),
			UTMParameters: models.UTMParameters{
				Source:   ws.UTMParameters.Source,
				Medium:   ws.UTMParameters.Medium,
				Campaign: s.faker.RandomString([]string{"", "launch", "black-friday"}),
			},
			Timestamp: at,
		}

		if picked, err := s.picker.Pick(active); err == nil {
			numberID := picked.ID
			event.NumberID = &numberID
			if err := s.repos.Numbers.RecordHit(ctx, picked.ID, ws.ID, at); err != nil {
				return recorded, err
			}
		}
		if err := s.repos.Analytics.AppendEvent(ctx, event); err != nil {
			return recorded, err
		}
		recorded++
	}
	return recorded, nil
}

// Clean removes every seeded user together with their workspaces and history
func (s *Seeder) Clean(ctx context.Context) error {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("firebase_uid LIKE ?", UIDPrefix+"%").Find(&users).Error; err != nil {
		return err
	}

	for _, user := range users {
		workspaces, err := s.repos.Workspaces.ListByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, ws := range workspaces {
			if err := s.repos.Workspaces.Delete(ctx, ws.ID); err != nil {
				return fmt.Errorf("failed to delete workspace %s: %w", ws.CustomURL, err)
			}
		}
		if err := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
			return err
		}
	}

	logger.Log.Info("Seed data removed", zap.Int("users", len(users)))
	return nil
}
