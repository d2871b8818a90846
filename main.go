// Command shopee is a CLI for Shopee Malaysia. It drives a real Chrome
// instance behind the scenes so that scraped pages and API calls carry
// a genuine browser fingerprint.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kitlim/shopee-cli/internal/auth"
	"github.com/kitlim/shopee-cli/internal/captcha"
	"github.com/kitlim/shopee-cli/internal/config"
	"github.com/kitlim/shopee-cli/internal/scheduler"
	"github.com/kitlim/shopee-cli/internal/session"
	"github.com/kitlim/shopee-cli/internal/shopee"
	"github.com/kitlim/shopee-cli/internal/store"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "shopee",
		Short:         "Interact with Shopee Malaysia from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		searchCmd(),
		productCmd(),
		ordersCmd(),
		watchCmd(),
		configCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func cookieStore() (*auth.CookieStore, error) {
	path, err := auth.DefaultCookieStorePath()
	if err != nil {
		return nil, err
	}
	return auth.NewCookieStore(path), nil
}

// sessionConfig maps the on-disk config onto the session's runtime
// settings, pulling the 2captcha key from the environment.
func sessionConfig(cfg *config.Config, requireAuth bool) (session.Config, error) {
	profileDir, err := config.ProfileDir()
	if err != nil {
		return session.Config{}, err
	}
	cc := cfg.Captcha
	return session.Config{
		BaseURL:      cfg.Site.BaseURL,
		APIBase:      cfg.Site.APIBase,
		WindowWidth:  cfg.Browser.WindowWidth,
		WindowHeight: cfg.Browser.WindowHeight,
		PageSettle:   cfg.PageSettle(),
		ProfileDir:   profileDir,
		RequireAuth:  requireAuth,
		Captcha: captcha.Config{
			MaxAttempts:       cc.MaxAttempts,
			WidgetWait:        secs(cc.WidgetWaitSecs),
			PollInterval:      secs(cc.PollIntervalSecs),
			PollTimeout:       secs(cc.PollTimeoutSecs),
			PostDragSettle:    secs(cc.PostDragSettleSecs),
			PostRefreshSettle: secs(cc.PostRefreshSettleSecs),
			ModalSettle:       millis(cc.ModalSettleMillis),
		},
		CaptchaAPIKey: config.CaptchaAPIKey(),
	}, nil
}

// newSession builds a browser session from stored config and cookies.
func newSession(ctx context.Context, requireAuth bool, log *zap.Logger) (*session.Session, error) {
	cfg := config.LoadOrDefault()
	sc, err := sessionConfig(cfg, requireAuth)
	if err != nil {
		return nil, err
	}
	cs, err := cookieStore()
	if err != nil {
		return nil, err
	}
	return session.New(ctx, sc, cs.Load(), log)
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open a browser to log in to Shopee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			cs, err := cookieStore()
			if err != nil {
				return err
			}
			mgr := auth.NewManager(cs, log)
			if err := mgr.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged in. Session saved.")
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the saved Shopee session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := cookieStore()
			if err != nil {
				return err
			}
			mgr := auth.NewManager(cs, newLogger())
			if err := mgr.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		limit  int
		sortBy string
		page   int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !contains(shopee.SortOptions, sortBy) {
				return fmt.Errorf("invalid sort %q, must be one of %s", sortBy, strings.Join(shopee.SortOptions, ", "))
			}

			log := newLogger()
			defer log.Sync()

			s, err := newSession(cmd.Context(), false, log)
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := shopee.Search(cmd.Context(), s, shopee.SearchQuery{
				Keyword: args[0],
				Limit:   limit,
				SortBy:  sortBy,
				Page:    page,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No results found.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"#", "Product", "Price (RM)", "Sold", "Rating", "Location"})
			for i, item := range results {
				price := "-"
				if item.Price > 0 {
					price = fmt.Sprintf("%.2f", item.Price)
				}
				t.AppendRow(table.Row{i + 1, truncate(item.Name, 50), price, item.Sold, item.Rating, item.Location})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of results")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "relevancy", "sort order (relevancy, sales, price, ctime)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <url-or-ids>",
		Short: "Show product details. Pass a Shopee URL or 'shop_id.item_id'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductArg(args[0])
			if err != nil {
				return err
			}

			log := newLogger()
			defer log.Sync()

			s, err := newSession(cmd.Context(), false, log)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := shopee.GetProduct(cmd.Context(), s, id)
			if err != nil {
				return err
			}
			if p.Name == "" {
				return errors.New("product not found")
			}

			printProduct(p)
			return nil
		},
	}
}

func printProduct(p *shopee.Product) {
	fmt.Printf("\n%s\n", p.Name)
	if p.Rating != "" {
		fmt.Printf("Rating: %s (%s ratings)\n", p.Rating, p.RatingCount)
	}
	if p.Sold != "" {
		fmt.Printf("Sold: %s\n", p.Sold)
	}
	if p.Price != "" {
		line := "Price: RM " + p.Price
		if p.OriginalPrice != "" {
			line += fmt.Sprintf("  (was RM %s, %s)", p.OriginalPrice, p.Discount)
		}
		fmt.Println(line)
	}
	if p.Description != "" {
		fmt.Printf("\n%s\n", truncate(p.Description, 500))
	}
}

func ordersCmd() *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your Shopee orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listType, err := orderStatusCode(status)
			if err != nil {
				return err
			}

			log := newLogger()
			defer log.Sync()

			s, err := newSession(cmd.Context(), true, log)
			if err != nil {
				return err
			}
			defer s.Close()

			orders, err := shopee.GetOrders(cmd.Context(), s, shopee.OrderQuery{
				ListType: listType,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Println("No orders found.")
				return nil
			}

			for _, o := range orders {
				fmt.Printf("\n%s - %s\n", o.ShopName, o.Status)
				fmt.Printf("  Order: %d\n", o.OrderID)
				for _, item := range o.Items {
					model := ""
					if item.Model != "" {
						model = fmt.Sprintf(" (%s)", item.Model)
					}
					fmt.Printf("  - %s%s x%d  RM %.2f\n", item.Name, model, item.Quantity, item.Price)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "All", "filter by order status")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of orders")
	return cmd
}

func orderStatusCode(label string) (int, error) {
	for code, l := range shopee.OrderStatusLabels {
		if strings.EqualFold(l, label) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", label)
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				fmt.Println(path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "open",
			Short: "Open the config file in the default editor",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPath()
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); os.IsNotExist(err) {
					if err := config.Default().Save(); err != nil {
						return err
					}
				}
				return browser.OpenFile(path)
			},
		},
	)
	return cmd
}

// parseProductArg accepts a full Shopee URL or a bare "shop_id.item_id".
func parseProductArg(arg string) (shopee.ProductID, error) {
	if id, err := shopee.ParseProductURL(arg); err == nil {
		return id, nil
	}
	parts := strings.SplitN(arg, ".", 2)
	if len(parts) == 2 {
		shop, err1 := strconv.ParseInt(parts[0], 10, 64)
		item, err2 := strconv.ParseInt(parts[1], 10, 64)
		if err1 == nil && err2 == nil {
			return shopee.ProductID{ShopID: shop, ItemID: item}, nil
		}
	}
	return shopee.ProductID{}, errors.New("invalid product URL or ID, use a Shopee URL or 'shop_id.item_id'")
}

func storePath() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "watches.db"), nil
}

func openStore() (*store.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}
	return store.New(path)
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Track product prices over time",
	}
	cmd.AddCommand(watchAddCmd(), watchRemoveCmd(), watchListCmd(), watchRunCmd())
	return cmd
}

func watchAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url-or-ids>",
		Short: "Start tracking a product's price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductArg(args[0])
			if err != nil {
				return err
			}

			log := newLogger()
			defer log.Sync()

			s, err := newSession(cmd.Context(), false, log)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := shopee.GetProduct(cmd.Context(), s, id)
			if err != nil {
				return err
			}
			if p.Name == "" {
				return errors.New("product not found")
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			w, err := db.AddWatch(id.ShopID, id.ItemID, p.Name)
			if err != nil {
				return err
			}
			if price, ok := parsePrice(p.Price); ok {
				if err := db.RecordPrice(w.ID, price); err != nil {
					return err
				}
			}
			fmt.Printf("Watching #%d: %s\n", w.ID, w.Name)
			return nil
		},
	}
}

func watchRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Stop tracking a product",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid watch id %q", args[0])
			}
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RemoveWatch(id); err != nil {
				return fmt.Errorf("watch #%d not found", id)
			}
			fmt.Printf("Removed watch #%d\n", id)
			return nil
		},
	}
}

func watchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tracked products",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			watches, err := db.ListWatches()
			if err != nil {
				return err
			}
			if len(watches) == 0 {
				fmt.Println("Nothing being watched. Add one with 'shopee watch add <url>'.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Product", "Last Price (RM)", "Checked"})
			for _, w := range watches {
				lastPrice, checked := "-", "-"
				if p, err := db.LatestPrice(w.ID); err == nil {
					lastPrice = fmt.Sprintf("%.2f", p.Price)
					checked = p.RecordedAt.Local().Format("2006-01-02 15:04")
				}
				t.AppendRow(table.Row{w.ID, truncate(w.Name, 50), lastPrice, checked})
			}
			t.Render()
			return nil
		},
	}
}

func watchRunCmd() *cobra.Command {
	var daemon bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check prices for all tracked products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			job := func(ctx context.Context) error {
				return checkWatchedPrices(ctx, db, log)
			}

			if !daemon {
				sched := scheduler.New(log)
				return sched.RunNow("watch", job)
			}

			cfg := config.LoadOrDefault()
			sched := scheduler.New(log)
			if err := sched.AddWatchJob(cfg.Watch.IntervalHours, job); err != nil {
				return err
			}
			sched.Start()
			defer func() { <-sched.Stop().Done() }()

			fmt.Printf("Checking prices every %d hours. Ctrl-C to stop.\n", cfg.Watch.IntervalHours)
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "keep running and check on a schedule")
	return cmd
}

// checkWatchedPrices visits each watched product page and records the
// current price. One browser session is shared across all watches.
func checkWatchedPrices(ctx context.Context, db *store.Store, log *zap.Logger) error {
	watches, err := db.ListWatches()
	if err != nil {
		return err
	}
	if len(watches) == 0 {
		log.Info("no watches to check")
		return nil
	}

	s, err := newSession(ctx, false, log)
	if err != nil {
		return err
	}
	defer s.Close()

	var failed int
	for _, w := range watches {
		p, err := shopee.GetProduct(ctx, s, shopee.ProductID{ShopID: w.ShopID, ItemID: w.ItemID})
		if err != nil {
			log.Warn("price check failed", zap.Int64("watch", w.ID), zap.Error(err))
			failed++
			continue
		}
		price, ok := parsePrice(p.Price)
		if !ok {
			log.Warn("no price on page", zap.Int64("watch", w.ID), zap.String("name", w.Name))
			failed++
			continue
		}
		if err := db.RecordPrice(w.ID, price); err != nil {
			return err
		}
		log.Info("recorded price", zap.String("name", w.Name), zap.Float64("price", price))
	}

	if failed == len(watches) {
		return errors.New("every price check failed")
	}
	return nil
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v, err == nil
}

func secs(n int) time.Duration   { return time.Duration(n) * time.Second }
func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
