package cli

import (
	"github.com/spf13/cobra"
	"github.com/zatekoja/symptomchecker/backend/internal/adapters/providers/geolocation"
)

func newCareCommand(opts *options) *cobra.Command {
	care := &cobra.Command{
		Use:   "care",
		Short: "Find hospitals near a position or an address",
	}
	care.AddCommand(newCareNearbyCommand(opts), newCareSearchCommand(opts))
	return care
}

func newCareNearbyCommand(opts *options) *cobra.Command {
	var (
		lat, lng   float64
		geoError   string
		specialist string
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List hospitals around a position",
		Long: `List up to four hospitals around a position, best rated first.
Pass --geo-error instead of coordinates to see what a user whose device
could not provide a position is shown.`,
		Example: `  symptomcheck care nearby --lat 6.5244 --lng 3.3792 --specialist Cardiologist
  symptomcheck care nearby --geo-error permission_denied`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var latPtr, lngPtr *float64
			if cmd.Flags().Changed("lat") {
				latPtr = &lat
			}
			if cmd.Flags().Changed("lng") {
				lngPtr = &lng
			}
			position, err := geolocation.NewReportedPosition(latPtr, lngPtr, geoError)
			if err != nil {
				return err
			}

			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			candidates := svc.Care.FromDevicePosition(ctx, position, specialist)
			return printResult(cmd.OutOrStdout(), opts.output, map[string]any{"candidates": candidates})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&geoError, "geo-error", "", "permission_denied, position_unavailable or timeout")
	cmd.Flags().StringVar(&specialist, "specialist", "", "specialist to search for")
	return cmd
}

func newCareSearchCommand(opts *options) *cobra.Command {
	var address, specialist string

	cmd := &cobra.Command{
		Use:     "search",
		Short:   "List hospitals near an address",
		Example: `  symptomcheck care search --address "Ikeja, Lagos"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.services()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			candidates, err := svc.Care.FromAddress(ctx, address, specialist)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.output, map[string]any{"candidates": candidates})
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "street address, city or region")
	cmd.Flags().StringVar(&specialist, "specialist", "", "specialist to search for")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
