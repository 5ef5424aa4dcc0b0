package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Meshack-Mesh/house-hunt-view/api"
	"github.com/Meshack-Mesh/house-hunt-view/internal/auth"
	"github.com/Meshack-Mesh/house-hunt-view/internal/config"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/accounts"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/locations"
	"github.com/Meshack-Mesh/house-hunt-view/internal/domain/properties"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/postgres"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/redis"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the layout of data/properties.yaml.
type seedFile struct {
	Landlord   seedLandlord   `yaml:"landlord"`
	Properties []seedProperty `yaml:"properties"`
}

type seedLandlord struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Phone    string `yaml:"phone"`
}

type seedProperty struct {
	Title          string   `yaml:"title"`
	Location       string   `yaml:"location"`
	Price          float64  `yaml:"price"`
	Period         string   `yaml:"period"`
	Bedrooms       int      `yaml:"bedrooms"`
	Bathrooms      int      `yaml:"bathrooms"`
	Area           string   `yaml:"area"`
	Description    string   `yaml:"description"`
	Features       []string `yaml:"features"`
	Lat            *float64 `yaml:"lat"`
	Lng            *float64 `yaml:"lng"`
	TotalUnits     int      `yaml:"total_units"`
	RemainingUnits int      `yaml:"remaining_units"`
	Images         []string `yaml:"images"`
}

func (p seedProperty) input() *api.PropertyInput {
	in := &api.PropertyInput{
		Title:          p.Title,
		Location:       p.Location,
		Price:          p.Price,
		Period:         p.Period,
		Bedrooms:       p.Bedrooms,
		Bathrooms:      p.Bathrooms,
		Area:           p.Area,
		Description:    p.Description,
		Features:       p.Features,
		Status:         api.PropertyAvailable,
		TotalUnits:     p.TotalUnits,
		RemainingUnits: p.RemainingUnits,
	}
	if p.Lat != nil && p.Lng != nil {
		in.Coordinates = &api.Coordinates{Lat: *p.Lat, Lng: *p.Lng}
	}
	return in
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if f.Landlord.Email == "" {
		return nil, errors.New("seed file has no landlord")
	}
	return &f, nil
}

func seedCmd() *cobra.Command {
	var (
		file          string
		adminEmail    string
		adminPassword string
		adminName     string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo listings and optionally create the admin account",
		Long: `Load demo listings and optionally create the admin account.

Listings are owned by the landlord named in the seed file and are only
inserted when that landlord has none yet, so the command can be re-run.
With --admin-email the account is created, or promoted if it exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			db, err := postgres.NewDB(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}

			profileRepo := postgres.NewProfileRepository(db)
			accountsService := accounts.NewService(profileRepo, auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL))

			if adminEmail != "" {
				admin, err := accountsService.EnsureAdmin(cmd.Context(), adminEmail, adminPassword, adminName)
				if err != nil {
					return fmt.Errorf("failed to create admin: %w", err)
				}
				logger.Info().
					Str("event", "admin_ready").
					Str("user_id", admin.Id).
					Str("email", admin.Email).
					Msg("Admin account ready")
			}

			if file == "" {
				return nil
			}

			f, err := loadSeedFile(file)
			if err != nil {
				return err
			}

			// Without Redis the listing cache simply expires on its own.
			var cache properties.Cache
			if redisClient, err := redis.NewClient(cfg.RedisURL); err == nil {
				defer redisClient.Close()
				cache = redis.NewPropertyCache(redisClient)
			} else {
				logger.Warn().Err(err).Msg("Redis unavailable, cached listings will not be refreshed")
			}

			propertyRepo := postgres.NewPropertyRepository(db)
			seeder := &seeder{
				accounts:   accountsService,
				profiles:   profileRepo,
				repo:       propertyRepo,
				cache:      cache,
				properties: properties.NewServiceWithCache(propertyRepo, cache, nil, locations.NewGazetteer(), false),
			}
			return seeder.run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "data/properties.yaml", "seed file, empty to skip listings")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email of the admin account to create or promote")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for the admin account")
	cmd.Flags().StringVar(&adminName, "admin-name", "HouseHunt Admin", "display name for a new admin account")

	return cmd
}

type seeder struct {
	accounts   accounts.ServiceInterface
	profiles   accounts.Repository
	repo       properties.Repository
	cache      properties.Cache
	properties properties.ServiceInterface
}

func (s *seeder) run(ctx context.Context, f *seedFile) error {
	landlord, err := s.landlord(ctx, f.Landlord)
	if err != nil {
		return err
	}
	actor := auth.Principal{UserID: landlord.Id, Email: landlord.Email, Role: landlord.Role}

	existing, err := s.properties.ListOwn(ctx, actor)
	if err != nil {
		return fmt.Errorf("failed to list seeded properties: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().
			Str("event", "seed_skipped").
			Int("existing", len(existing)).
			Msg("Landlord already has listings")
		return nil
	}

	for _, p := range f.Properties {
		listing, err := s.properties.Create(ctx, actor, p.input())
		if err != nil {
			return fmt.Errorf("failed to seed %q: %w", p.Title, err)
		}

		// Seeded photos stay on their CDN and are served by redirect.
		for _, url := range p.Images {
			image := &api.PropertyImage{
				Id:         uuid.New().String(),
				PropertyId: listing.Id,
				ImageUrl:   url,
				CreatedAt:  time.Now(),
			}
			if err := s.repo.AddImage(ctx, image); err != nil {
				return fmt.Errorf("failed to add image to %q: %w", p.Title, err)
			}
		}

		logger.Info().
			Str("event", "property_seeded").
			Str("property_id", listing.Id).
			Str("title", listing.Title).
			Int("images", len(p.Images)).
			Msg("Property seeded")
	}

	// Images were added behind the service's back.
	if s.cache != nil {
		if err := s.cache.InvalidateAvailable(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to invalidate listing cache")
		}
	}
	return nil
}

func (s *seeder) landlord(ctx context.Context, l seedLandlord) (*api.Profile, error) {
	resp, err := s.accounts.SignUp(ctx, &api.SignUpRequest{
		Email:    l.Email,
		Password: l.Password,
		FullName: l.FullName,
		Phone:    l.Phone,
		Role:     api.RoleLandlord,
	})
	if err == nil {
		return &resp.Profile, nil
	}
	if !errors.Is(err, accounts.ErrEmailTaken) {
		return nil, fmt.Errorf("failed to create seed landlord: %w", err)
	}

	profile, err := s.profiles.GetByEmail(ctx, l.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get seed landlord: %w", err)
	}
	if profile == nil {
		return nil, errors.New("seed landlord disappeared")
	}
	return profile, nil
}
