package main

import (
	"github.com/resistx/platform/pkg/encoder"
	"github.com/resistx/platform/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	apiURL    string
	username  string
	password  string
	output    string
	formPath  string
	preflight bool
	compare   bool

	observations = encoder.DefaultObservations()
)

var (
	rootCmd = &cobra.Command{
		Use:           "resistx",
		Short:         "DR-TB Rifampicin resistance prediction client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Log in, submit one patient's details and print the report",
		Long: `Encodes the patient details given as flags (or a form file), sends them to the
prediction service and prints the result. The password is read from
RESISTX_PASSWORD when --password is not set.`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}

	encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Print the feature record that predict would send",
		Args:  cobra.NoArgs,
		RunE:  runEncode,
	}

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the feature schema, or compare it with the service's",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}

	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to store for a password",
		Long:  `Hashes the argument, or the first line of stdin when no argument is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHashPassword,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "prediction service base URL (default $PREDICTION_API_URL)")

	predictCmd.Flags().StringVarP(&username, "username", "u", "", "operator username")
	predictCmd.Flags().StringVarP(&password, "password", "p", "", "operator password (default $RESISTX_PASSWORD)")
	predictCmd.Flags().StringVarP(&output, "output", "o", "text", "report format: text or json")
	predictCmd.Flags().BoolVar(&preflight, "check-schema", true, "compare schemas with the service before predicting")
	_ = predictCmd.MarkFlagRequired("username")

	for _, cmd := range []*cobra.Command{predictCmd, encodeCmd} {
		addObservationFlags(cmd)
	}

	schemaCmd.Flags().BoolVar(&compare, "check", false, "compare with the schema the service reports")

	rootCmd.AddCommand(predictCmd, encodeCmd, schemaCmd, hashPasswordCmd)
}

func addObservationFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&formPath, "form", "", "YAML or JSON file of field name to value; replaces the detail flags")
	f.StringVar(&observations.CultureResult, "culture", observations.CultureResult, schema.FieldCultureResult+" (Negative|Positive)")
	f.StringVar(&observations.AFBMicroscopy, "afb", observations.AFBMicroscopy, schema.FieldAFBMicroscopy+" (Negative|Positive)")
	f.IntVar(&observations.Age, "age", observations.Age, "age in years")
	f.StringVar(&observations.Gender, "gender", observations.Gender, "Female|Male")
	f.IntVar(&observations.HeartRate, "heart-rate", observations.HeartRate, "heart rate")
	f.IntVar(&observations.RespiratoryRate, "resp-rate", observations.RespiratoryRate, "respiratory rate")
	f.IntVar(&observations.Weight, "weight", observations.Weight, "weight in kg")
	f.StringVar(&observations.TBHistory, "tb-history", observations.TBHistory, schema.FieldTBHistory+" (No|Yes)")
	f.StringVar(&observations.Fever, "fever", observations.Fever, "No|Yes")
	f.StringVar(&observations.WeightLoss, "weight-loss", observations.WeightLoss, "No|Yes")
	f.StringVar(&observations.HIVStatus, "hiv", observations.HIVStatus, "HIV status (Negative|Positive)")
	f.IntVar(&observations.CD4, "cd4", observations.CD4, "CD4 count, used only when HIV status is Positive")
}
