package main

import (
	"fmt"

	"plant-shop/internal/storefront"

	"github.com/spf13/cobra"
)

func newSignInCmd(a *app) *cobra.Command {
	var email, password string
	var showToken bool

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := storefront.NewAuthFlows(a.identity(), a.log).SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return storefront.RenderUser(cmd.OutOrStdout(), user, showToken)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the access token for --token / PLANTSHOP_TOKEN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignUpCmd(a *app) *cobra.Command {
	var form storefront.SignUpForm
	var showToken bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := storefront.NewAuthFlows(a.identity(), a.log).SignUp(cmd.Context(), form)
			if err != nil {
				return err
			}
			return storefront.RenderUser(cmd.OutOrStdout(), user, showToken)
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the access token for --token / PLANTSHOP_TOKEN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newFederatedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "federated PROVIDER",
		Short: "Print the consent page to sign in with a provider such as google",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := storefront.NewAuthFlows(a.identity(), a.log).FederatedSignIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Open this page to continue signing in:\n%s\n", target)
			return nil
		},
	}
}
