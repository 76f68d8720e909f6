// Command storefront is a smoke-test CLI for the storefront data-access
// layer: browse stores and products, inspect orders, and reserve items from
// the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/foodsave/storefront-client/client"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// .env is optional; environment wins over the config file either way.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	configPath := fs.String("config", "storefront.yaml", "path to client config")
	verbose := fs.Bool("v", false, "log requests")
	page := fs.Int("page", 0, "page number")
	size := fs.Int("size", 20, "page size")
	id := fs.Int64("id", 0, "entity id for store/product/order commands")
	quantity := fs.Int("qty", 1, "reservation quantity")
	note := fs.String("note", "", "reservation note")
	initData := fs.String("initdata", "", "telegram init data for login")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: storefront [flags] stores|store|products|product|featured|orders|order|reserve|login|me|logout")
	}

	cfg := client.LoadConfigOrDefault(*configPath)
	if *verbose {
		log := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.DebugLevel).With().Timestamp().Logger()
		cfg.Logger = &log
	}
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch cmd := fs.Arg(0); cmd {
	case "stores":
		return emit(c.ActiveStores(ctx))
	case "store":
		return emit(c.StoreByID(ctx, *id))
	case "products":
		if *id > 0 {
			return emit(c.ProductsByStore(ctx, *id, *page, *size))
		}
		return emit(c.Products(ctx, *page, *size))
	case "product":
		return emit(c.ProductByID(ctx, *id))
	case "featured":
		return emit(c.FeaturedProducts(ctx, *page, *size))
	case "orders":
		return emit(c.MyOrders(ctx))
	case "order":
		return emit(c.OrderByID(ctx, *id))
	case "reserve":
		return emit(c.CreateReservation(ctx, client.ReservationRequest{
			ProductID: *id,
			Quantity:  *quantity,
			Note:      *note,
		}))
	case "login":
		return emit(c.Authenticate(ctx, *initData))
	case "me":
		return emit(c.CurrentUser(ctx))
	case "logout":
		c.Logout()
		fmt.Println("logged out")
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func emit[T any](v T, err error) error {
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
