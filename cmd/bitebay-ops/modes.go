// README: Mode implementations behind the ops CLI flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"bitebay/internal/infra"
	"bitebay/internal/logger"
	"bitebay/internal/modules/delivery"
	"bitebay/internal/modules/identity"
	"bitebay/internal/modules/notification"
	"bitebay/internal/modules/order"
	"bitebay/internal/modules/stats"
	"bitebay/internal/realtime"
	"bitebay/internal/types"
)

var opsCaller = &identity.Caller{UserID: "ops-cli", Role: identity.RoleAdmin}

func runStats(ctx context.Context, cfg Config, out io.Writer) error {
	db, err := infra.NewDB(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := stats.NewService(stats.NewStore(db, order.NewStore(db)), cfg.Recent)
	ov, err := svc.Overview(ctx, opsCaller)
	if err != nil {
		return err
	}
	return renderOverview(out, ov)
}

func renderOverview(out io.Writer, ov *stats.Overview) error {
	totals := tablewriter.NewWriter(out)
	totals.Header("Metric", "Value")
	s := ov.Stats
	for _, row := range [][]string{
		{"Users", fmt.Sprint(s.TotalUsers)},
		{"Vendors", fmt.Sprint(s.TotalVendors)},
		{"Delivery partners", fmt.Sprint(s.TotalDeliveryPartners)},
		{"Stores", fmt.Sprint(s.TotalStores)},
		{"Orders", fmt.Sprint(s.TotalOrders)},
		{"Revenue", s.TotalRevenue.String()},
	} {
		if err := totals.Append(row); err != nil {
			return err
		}
	}
	if err := totals.Render(); err != nil {
		return err
	}

	byStatus := tablewriter.NewWriter(out)
	byStatus.Header("Status", "Orders")
	for _, st := range append(append([]order.Status{}, order.Sequence...), order.StatusCancelled) {
		if err := byStatus.Append([]string{string(st), fmt.Sprint(ov.OrderStats[st])}); err != nil {
			return err
		}
	}
	if err := byStatus.Render(); err != nil {
		return err
	}

	recent := tablewriter.NewWriter(out)
	recent.Header("Order", "Status", "Total", "Created")
	for _, o := range ov.RecentOrders {
		row := []string{order.ShortID(o.ID), string(o.Status), o.Total.String(), o.CreatedAt.Format(time.RFC3339)}
		if err := recent.Append(row); err != nil {
			return err
		}
	}
	return recent.Render()
}

type raceResult struct {
	Partner string
	Outcome string
	Latency time.Duration
}

// runRace fires one accept per partner at the same pending assignment and
// reports who won. The order must already be confirmed.
func runRace(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.OrderID == "" || len(cfg.Partners) < 2 {
		return errors.New("-order and at least two -partners are required")
	}
	logger.Replace(zap.NewNop())

	db, err := infra.NewDB(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	redisClient := infra.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	notifier := notification.NewService(notification.NewStore(db), infra.LogMailer{}, false)
	bus := realtime.NewRedisBus(redisClient)
	orders := order.NewService(order.NewStore(db), bus, notifier)
	deliveries := delivery.NewService(delivery.NewStore(db), delivery.NewRedisDispatchLog(redisClient), orders, notifier, bus)

	results := accept(ctx, deliveries, types.ID(cfg.OrderID), cfg.Partners)
	return renderRace(out, results)
}

type acceptor interface {
	Accept(ctx context.Context, cmd delivery.AcceptCommand) (*delivery.Assignment, error)
}

func accept(ctx context.Context, svc acceptor, orderID types.ID, partners []string) []raceResult {
	results := make([]raceResult, len(partners))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, p := range partners {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			<-start
			began := time.Now()
			_, err := svc.Accept(ctx, delivery.AcceptCommand{
				OrderID: orderID,
				Caller:  &identity.Caller{UserID: types.ID(p), Role: identity.RoleDeliveryPartner},
			})
			res := raceResult{Partner: p, Outcome: "WON", Latency: time.Since(began)}
			if err != nil {
				res.Outcome = err.Error()
			}
			results[i] = res
		}(i, p)
	}
	close(start)
	wg.Wait()

	sort.SliceStable(results, func(a, b int) bool { return results[a].Latency < results[b].Latency })
	return results
}

func renderRace(out io.Writer, results []raceResult) error {
	table := tablewriter.NewWriter(out)
	table.Header("Partner", "Outcome", "Latency")
	winners := 0
	for _, r := range results {
		if r.Outcome == "WON" {
			winners++
		}
		if err := table.Append([]string{r.Partner, r.Outcome, r.Latency.Round(time.Microsecond).String()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "winners=%d of %d\n", winners, len(results))
	return err
}

func runToken(cfg Config, out io.Writer) error {
	if cfg.UID == "" {
		return errors.New("-uid is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("-secret or BITEBAY_JWT_SECRET is required")
	}
	tok, err := infra.NewJWTProvider(cfg.JWTSecret, nil).SignToken(cfg.UID, cfg.Email, cfg.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
