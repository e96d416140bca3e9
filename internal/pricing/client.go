// Package pricing абстрагирует внешнего прайс-провайдера авиаперелётов.
package pricing

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Quote — предложение провайдера по запрошенному маршруту.
// Цена зафиксирована до Expiration, после чего бронирование по ней невозможно.
type Quote struct {
	Carrier    string
	Price      string
	Expiration time.Time
}

// SearchRequest — параметры поиска перелёта.
type SearchRequest struct {
	RoundTrip     bool
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    *string
	Cabin         string
}

// Provider возвращает котировки и актуальные цены по ранее найденным
// рейсам. Реальная интеграция живёт за этим интерфейсом.
type Provider interface {
	Search(ctx context.Context, req SearchRequest) (*Quote, error)
	// CurrentPrice возвращает актуальную цену уже оформленной поездки.
	CurrentPrice(ctx context.Context, carrier, origin, destination, departureDate string) (string, error)
}

var carriers = []string{"DL", "AA", "UA", "B6", "AS"}

// StaticProvider — детерминированная заглушка для development-окружения
// и тестов: отвечает псевдослучайным перевозчиком и фиксированной ценой
// со сроком действия 30 минут.
type StaticProvider struct {
	// QuoteTTL — срок действия выданной цены.
	QuoteTTL time.Duration
}

// NewStaticProvider создаёт заглушку провайдера.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{QuoteTTL: 30 * time.Minute}
}

// Search возвращает котировку по запросу.
func (p *StaticProvider) Search(_ context.Context, req SearchRequest) (*Quote, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(carriers))))
	if err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	price := "289.40"
	if req.RoundTrip {
		price = "512.80"
	}
	return &Quote{
		Carrier:    carriers[idx.Int64()],
		Price:      price,
		Expiration: time.Now().Add(p.QuoteTTL),
	}, nil
}

// CurrentPrice возвращает неизменную цену: заглушке нечего пересчитывать.
func (p *StaticProvider) CurrentPrice(_ context.Context, _, _, _, _ string) (string, error) {
	return "289.40", nil
}
