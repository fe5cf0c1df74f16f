package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// SeedRegistrar регистрирует пользователя. Реализуется AuthService.
type SeedRegistrar interface {
	Register(ctx context.Context, in RegisterInput, meta SessionMeta) (*AuthResult, error)
}

// SeedTopUpper пополняет кошелёк через обычный сценарий пополнения.
type SeedTopUpper interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
}

// SeedOrder параметры заказа для генератора.
type SeedOrder struct {
	RequesterID  uuid.UUID
	Item         string
	Price        int64
	Tip          int64
	FromLocation string
	ToLocation   string
}

// SeedOrderCreator создаёт заказ с удержанием средств.
type SeedOrderCreator func(ctx context.Context, order SeedOrder) error

// SeedService генерирует демонстрационные данные для разработки.
// Все деньги проходят через те же сценарии, что и в API, поэтому журнал
// кошелька после генерации сходится с балансами.
type SeedService struct {
	auth        SeedRegistrar
	wallet      SeedTopUpper
	createOrder SeedOrderCreator
	rnd         *rand.Rand
}

func NewSeedService(auth SeedRegistrar, wallet SeedTopUpper, createOrder SeedOrderCreator, seed int64) *SeedService {
	return &SeedService{
		auth:        auth,
		wallet:      wallet,
		createOrder: createOrder,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

var (
	seedFirstNames = []string{"Budi", "Siti", "Agus", "Dewi", "Rizky", "Putri", "Andi", "Ayu", "Fajar", "Intan"}
	seedLastNames  = []string{"Santoso", "Rahma", "Pratama", "Lestari", "Hidayat", "Wijaya", "Saputra", "Kusuma"}
	seedCities     = []string{"Jakarta", "Bandung", "Surabaya", "Medan", "Aceh", "Makassar", "Denpasar", "Yogyakarta", "Singapore", "Kuala Lumpur"}
	seedItems      = []string{
		"Kopi Gayo 1kg", "Bika Ambon", "Bakpia Pathok", "Pempek Palembang", "Sambal Bu Rudy",
		"Batik tulis", "Kacang Disco", "Dodol Garut", "Keripik Balado", "Teh Kayu Aro",
	}
)

// SeedResult сводка сгенерированных данных.
type SeedResult struct {
	Users  []uuid.UUID
	Orders int
}

// SeedData создаёт numUsers пользователей с паролем seedPassword, пополняет
// их кошельки и создаёт numOrders открытых заказов от случайных пользователей.
// Заказ пропускается, если у выбранного пользователя не хватает средств.
func (s *SeedService) SeedData(ctx context.Context, numUsers, numOrders int, seedPassword string) (*SeedResult, error) {
	log := logger.WithComponent("seed")
	result := &SeedResult{}

	for i := 0; i < numUsers; i++ {
		first := seedFirstNames[s.rnd.Intn(len(seedFirstNames))]
		last := seedLastNames[s.rnd.Intn(len(seedLastNames))]

		registered, err := s.auth.Register(ctx, RegisterInput{
			Email:    fmt.Sprintf("seed.%s.%s.%d@titip.local", strings.ToLower(first), strings.ToLower(last), s.rnd.Intn(1_000_000)),
			Password: seedPassword,
			FullName: first + " " + last,
		}, SessionMeta{UserAgent: "titipctl seed"})
		if err != nil {
			return result, fmt.Errorf("seed service: register user %d: %w", i, err)
		}

		amount := int64(100_000 + s.rnd.Intn(20)*50_000)
		if _, err := s.wallet.TopUp(ctx, registered.User.ID, amount); err != nil {
			return result, fmt.Errorf("seed service: top up user %d: %w", i, err)
		}
		result.Users = append(result.Users, registered.User.ID)
	}

	if len(result.Users) == 0 {
		return result, nil
	}

	for i := 0; i < numOrders; i++ {
		from := seedCities[s.rnd.Intn(len(seedCities))]
		to := seedCities[s.rnd.Intn(len(seedCities))]
		for to == from {
			to = seedCities[s.rnd.Intn(len(seedCities))]
		}

		err := s.createOrder(ctx, SeedOrder{
			RequesterID:  result.Users[s.rnd.Intn(len(result.Users))],
			Item:         seedItems[s.rnd.Intn(len(seedItems))],
			Price:        int64(20_000 + s.rnd.Intn(10)*5_000),
			Tip:          int64(5_000 + s.rnd.Intn(4)*2_500),
			FromLocation: from,
			ToLocation:   to,
		})
		if apperror.IsInsufficientFunds(err) {
			continue
		}
		if err != nil {
			return result, fmt.Errorf("seed service: create order %d: %w", i, err)
		}
		result.Orders++
	}

	log.WithField("users", len(result.Users)).WithField("orders", result.Orders).Info("демо-данные созданы")
	return result, nil
}
