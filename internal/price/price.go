package price

import (
	"context"
	"strings"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Instrument is a resolved, watchable coin: the normalized pair identifier
// plus the CoinPaprika coin ID everything is queried by.
type Instrument struct {
	CoinID     string
	Name       string
	BaseSymbol string
	Symbol     string // "<base>/USD"
}

// Quote carries the market context attached to trigger notifications.
type Quote struct {
	PriceUSD         float64
	PercentChange24h float64
	Volume24h        float64
	MarketCap        float64
}

// Client fetches prices from the CoinPaprika API, one instrument per call.
type Client struct {
	paprika *coinpaprika.Client
}

// NewClient builds a price client; an empty key uses the free API tier.
func NewClient(apiProKey string) *Client {
	if apiProKey != "" {
		return &Client{paprika: coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &Client{paprika: coinpaprika.NewClient(nil)}
}

// Resolve maps a user-supplied symbol or name to an Instrument. Symbol search
// first, name search as the fallback.
func (c *Client) Resolve(query string) (*Instrument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty instrument query")
	}

	searchOpts := &coinpaprika.SearchOptions{
		Query:      query,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := c.paprika.Search.Search(searchOpts)
	if err != nil || len(result.Currencies) == 0 {
		log.Debugf("no symbol search results for %q, trying name search", query)
		searchOpts = &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
		result, err = c.paprika.Search.Search(searchOpts)
		if err != nil || len(result.Currencies) == 0 {
			return nil, errors.Errorf("unknown instrument: %s", query)
		}
	}

	coin := result.Currencies[0]
	if coin.ID == nil || coin.Symbol == nil || coin.Name == nil {
		return nil, errors.Errorf("incomplete coin record for %s", query)
	}

	base := strings.ToUpper(*coin.Symbol)
	return &Instrument{
		CoinID:     *coin.ID,
		Name:       *coin.Name,
		BaseSymbol: base,
		Symbol:     base + "/USD",
	}, nil
}

// CurrentPrice returns the current USD price for one coin. Connection errors,
// timeouts and missing quotes all collapse to a single "price unavailable"
// failure the monitor retries next cycle.
func (c *Client) CurrentPrice(ctx context.Context, coinID string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ticker, err := c.paprika.Tickers.GetByID(coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return 0, errors.Wrapf(err, "price unavailable for %s", coinID)
	}

	if ticker == nil || ticker.Quotes == nil {
		return 0, errors.Errorf("price unavailable for %s: empty ticker", coinID)
	}
	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return 0, errors.Errorf("price unavailable for %s: no USD quote", coinID)
	}

	return *usd.Price, nil
}

// Quote24h fetches the 24h market context for one coin. Best-effort; callers
// drop it on error.
func (c *Client) Quote24h(ctx context.Context, coinID string) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ticker, err := c.paprika.Tickers.GetByID(coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return nil, errors.Wrapf(err, "quote unavailable for %s", coinID)
	}
	if ticker == nil || ticker.Quotes == nil {
		return nil, errors.Errorf("quote unavailable for %s", coinID)
	}
	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return nil, errors.Errorf("quote unavailable for %s", coinID)
	}

	q := &Quote{PriceUSD: *usd.Price}
	if usd.PercentChange24h != nil {
		q.PercentChange24h = *usd.PercentChange24h
	}
	if usd.Volume24h != nil {
		q.Volume24h = *usd.Volume24h
	}
	if usd.MarketCap != nil {
		q.MarketCap = *usd.MarketCap
	}
	return q, nil
}
