package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bms/internal/model"
	"bms/internal/repository/postgres"
)

func leaseCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Manage tenant leases",
	}

	var tenant, landlord string
	create := &cobra.Command{
		Use:   "create",
		Short: "Record a lease binding a tenant to a landlord",
		Long: `Record a lease binding a tenant to a landlord.

Uploads resolve the reviewing landlord from the tenant's most recent lease.

Examples:
  bmsctl lease create --tenant 7f1c... --landlord 91ab...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			lease, err := postgres.NewLeasePostgres(db).Create(cmd.Context(), &model.Lease{
				TenantID:   tenant,
				LandlordID: landlord,
			})
			if err != nil {
				return fmt.Errorf("create lease: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), lease)
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "tenant user id")
	create.Flags().StringVar(&landlord, "landlord", "", "landlord user id")
	_ = create.MarkFlagRequired("tenant")
	_ = create.MarkFlagRequired("landlord")

	cmd.AddCommand(create)
	return cmd
}

func typesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage document types",
	}

	var id, name, description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a document type tenants can upload against",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			dt, err := postgres.NewDocumentTypePostgres(db).Create(cmd.Context(), &model.DocumentType{
				ID:          id,
				Name:        name,
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("create document type: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), dt)
		},
	}
	create.Flags().StringVar(&id, "id", "", "document type id")
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&description, "description", "", "optional description")
	_ = create.MarkFlagRequired("id")
	_ = create.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered document types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := postgres.NewDocumentTypePostgres(db).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list document types: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}

	cmd.AddCommand(create, list)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
