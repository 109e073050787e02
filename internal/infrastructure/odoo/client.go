// Package odoo implements the source.Client contract against an Odoo-style
// XML-RPC external API.
package odoo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cpq/backend/internal/domain/source"
	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"
)

// Config holds connection settings for the remote system
type Config struct {
	URL            string
	Database       string
	Username       string
	Password       string
	AuthRetries    int
	AuthRetryDelay time.Duration
}

// Client talks to the remote system over XML-RPC. Authentication happens
// lazily on first use and the session uid is cached for the client lifetime,
// so a transient outage at startup never crashes the process.
type Client struct {
	cfg    Config
	common *xmlrpc.Client
	object *xmlrpc.Client
	logger *zap.Logger

	mu  sync.Mutex
	uid int64
}

// NewClient creates a client for the remote system. No network traffic
// happens here; the first request authenticates.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")

	common, err := xmlrpc.NewClient(base+"/xmlrpc/2/common", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create common endpoint client: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/2/object", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create object endpoint client: %w", err)
	}

	if cfg.AuthRetries <= 0 {
		cfg.AuthRetries = 10
	}
	if cfg.AuthRetryDelay <= 0 {
		cfg.AuthRetryDelay = time.Second
	}

	return &Client{
		cfg:    cfg,
		common: common,
		object: object,
		logger: logger,
	}, nil
}

// authenticate returns the cached session uid, performing the initial
// authentication with a bounded fixed-delay retry budget on first use
func (c *Client) authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uid != 0 {
		return c.uid, nil
	}

	attempt := func() error {
		var reply any
		err := c.common.Call("authenticate", []any{
			c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{},
		}, &reply)
		if err != nil {
			return err
		}
		uid := asInt64(reply)
		if uid == 0 {
			// Bad credentials come back as boolean false, not a fault
			return backoff.Permanent(fmt.Errorf("authentication rejected for user %q", c.cfg.Username))
		}
		c.uid = uid
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.cfg.AuthRetryDelay),
			uint64(c.cfg.AuthRetries-1),
		),
		ctx,
	)

	if err := backoff.RetryNotify(attempt, policy, func(err error, _ time.Duration) {
		c.logger.Warn("source authentication attempt failed", zap.Error(err))
	}); err != nil {
		return 0, &source.UnavailableError{Op: "authenticate", Err: err}
	}

	c.logger.Info("authenticated against source system", zap.Int64("uid", c.uid))
	return c.uid, nil
}

// executeRead runs a model read over the object endpoint
func (c *Client) executeRead(ctx context.Context, model string, ids []int64, fields []string) ([]map[string]any, error) {
	uid, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var reply []map[string]any
	err = c.object.Call("execute_kw", []any{
		c.cfg.Database, uid, c.cfg.Password,
		model, "read",
		[]any{ids},
		map[string]any{"fields": fields},
	}, &reply)
	if err != nil {
		return nil, &source.UnavailableError{Op: "read " + model, Err: err}
	}
	return reply, nil
}

// ReadOrder fetches one order header by its source id
func (c *Client) ReadOrder(ctx context.Context, id int64) (*source.RawOrder, error) {
	fields := []string{"name", "partner_id", "currency_id", "amount_untaxed", "amount_tax", "amount_total", "date_order", "order_line"}
	rows, err := c.executeRead(ctx, "sale.order", []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sale.order %d: %w", id, source.ErrOrderNotFound)
	}

	row := rows[0]
	return &source.RawOrder{
		Name:          asString(row["name"]),
		PartnerName:   many2oneName(row["partner_id"]),
		CurrencyName:  many2oneName(row["currency_id"]),
		DateOrder:     asString(row["date_order"]),
		AmountUntaxed: asFloat(row["amount_untaxed"]),
		AmountTax:     asFloat(row["amount_tax"]),
		AmountTotal:   asFloat(row["amount_total"]),
		LineIDs:       asInt64Slice(row["order_line"]),
	}, nil
}

// ReadLines fetches the given order lines, preserving the source's order
func (c *Client) ReadLines(ctx context.Context, ids []int64) ([]source.RawLine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	fields := []string{"name", "display_type", "product_id", "product_uom_qty", "price_unit", "price_subtotal"}
	rows, err := c.executeRead(ctx, "sale.order.line", ids, fields)
	if err != nil {
		return nil, err
	}

	lines := make([]source.RawLine, 0, len(rows))
	for _, row := range rows {
		line := source.RawLine{
			Name:         asString(row["name"]),
			DisplayType:  asString(row["display_type"]),
			Quantity:     asFloat(row["product_uom_qty"]),
			UnitPrice:    asFloat(row["price_unit"]),
			LineSubtotal: asFloat(row["price_subtotal"]),
		}
		if pid, ok := many2oneID(row["product_id"]); ok {
			line.ProductID = &pid
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ProductCodes resolves product ids to short codes, falling back to the
// display name and then the empty string
func (c *Client) ProductCodes(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	rows, err := c.executeRead(ctx, "product.product", ids, []string{"default_code", "name"})
	if err != nil {
		return nil, err
	}

	codes := make(map[int64]string, len(rows))
	for _, row := range rows {
		code := asString(row["default_code"])
		if code == "" {
			code = asString(row["name"])
		}
		codes[asInt64(row["id"])] = code
	}
	return codes, nil
}

var _ source.Client = (*Client)(nil)
