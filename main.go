package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"dscheirer.com/ridebutton/geocoder"
	"dscheirer.com/ridebutton/ridesapi"
)

// ridebutton --config={config file} run

type app struct {
	configFile string
	verbose    bool
	settings   configSettings
	logs       io.Closer
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	source := a.configFile
	settings, err := loadSettings(a.configFile)
	if err != nil {
		// no conf file at the default location is fine, anything else is not
		if cmd.Flags().Changed("config") || !os.IsNotExist(errors.Cause(err)) {
			return err
		}
		source = "defaults"
	}
	a.settings = settings

	a.logs, err = setupLogging(settings, a.verbose)
	if err != nil {
		return err
	}
	(&ThreadLogger{name: "Main"}).Printf("using settings from %s (%s)", source, strings.Join(features, ","))
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) {
	if a.logs != nil {
		a.logs.Close()
	}
}

// runtime builds the runtime, with a geocoder and, if rides is set, an
// authorized rides client
func (a *app) runtime(rides bool) (runtimeConfig, error) {
	rt := initRuntime(a.settings)
	s := a.settings

	cache, err := geocoder.OpenCache(s.GetString(sCachePath), s.GetInt(sCacheSize))
	if err != nil {
		return rt, err
	}
	nominatim := geocoder.NewNominatim(s.GetString(sGeocodeURL), s.GetString(sUserAgent),
		rt.clock, s.GetDuration(sGeocodeDelay), s.GetDuration(sGeocodeTimeout))
	rt.resolver = geocoder.NewResolver(cache, nominatim)

	if rides {
		client, err := riderClient(s, false, os.Stdin, os.Stdout)
		if err != nil {
			return rt, err
		}
		rt.rides = ridesapi.NewClient(client, s.GetString(sRidesURL))
	}
	return rt, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "ridebutton",
		Short:             "Request a ride with the press of a button",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", defaultConfigFile, "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to the console too")

	root.AddCommand(
		a.runCmd(),
		a.pressCmd(),
		a.oauthCmd(),
		a.geocodeCmd(),
		a.estimateCmd(),
		a.productsCmd(),
		a.surgeCmd(),
	)
	return root
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the button and request a ride on every press",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(true)
			if err != nil {
				return err
			}
			rt.settings.Dump(rt.logger)

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				select {
				case sig := <-signals:
					rt.logger.Printf("got %v, shutting down", sig)
					rt.comms.shutdown()
				case <-rt.comms.quit:
				}
			}()

			startLEDController(rt)
			startConfigService(rt)
			startRideRequests(rt)
			startWatchButtons(rt)

			wg.Wait()
			return nil
		},
	}
}

func (a *app) pressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "press",
		Short: "Request one ride right now, no button needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(true)
			if err != nil {
				return err
			}
			rt.out = cmd.OutOrStdout()
			// no button watcher here, so the popup runs termbox itself
			if tp, ok := rt.popup.(*termboxPopup); ok {
				tp.owned = false
			}
			res := onButton(rt)
			if !res.ok() {
				return errors.New(res.Error)
			}
			return nil
		},
	}
}

func (a *app) oauthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "oauth",
		Short: "Authorize the rider account and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := riderClient(a.settings, true, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
}

func (a *app) geocodeCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "geocode [address...]",
		Short: "Look up addresses, the configured start and end by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(false)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{a.settings.GetString(sStartAddr), a.settings.GetString(sEndAddr)}
			}
			return geocodeAddresses(rt, cmd.OutOrStdout(), args, refresh)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "forget cached answers first")
	return cmd
}

func geocodeAddresses(rt runtimeConfig, w io.Writer, addresses []string, refresh bool) error {
	ctx, cancel := rt.rideContext()
	defer cancel()

	for _, addr := range addresses {
		if refresh {
			if err := rt.resolver.Forget(addr); err != nil {
				return err
			}
		}
		loc, err := rt.resolver.Resolve(ctx, addr)
		if err != nil {
			failPrint(w, err)
			return err
		}
		if loc == nil {
			failPrint(w, fmt.Errorf("%s: not found", addr))
			continue
		}
		successPrint(w, fmt.Sprintf("%s: %f,%f (%s)", addr, loc.Latitude, loc.Longitude, loc))
	}
	return nil
}

func (a *app) estimateCmd() *cobra.Command {
	var product string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the configured route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(true)
			if err != nil {
				return err
			}
			rt.out = cmd.OutOrStdout()
			if product == "" {
				product = a.settings.GetString(sSurgeProductID)
			}
			_, err = estimateRide(rt, product)
			return err
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "product id (default: the surge product)")
	return cmd
}

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the products at the start address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(true)
			if err != nil {
				return err
			}
			rt.out = cmd.OutOrStdout()
			_, err = listProducts(rt)
			return err
		},
	}
}

func (a *app) surgeCmd() *cobra.Command {
	var (
		product    string
		multiplier float64
		available  bool
	)
	cmd := &cobra.Command{
		Use:   "surge",
		Short: "Set the surge multiplier of a sandbox product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(true)
			if err != nil {
				return err
			}
			rt.out = cmd.OutOrStdout()
			if product == "" {
				product = a.settings.GetString(sSurgeProductID)
			}
			return setSurge(rt, product, multiplier, available)
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "product id (default: the surge product)")
	cmd.Flags().Float64Var(&multiplier, "multiplier", 1.0, "surge multiplier, 1 turns surge off")
	cmd.Flags().BoolVar(&available, "available", true, "drivers available")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
