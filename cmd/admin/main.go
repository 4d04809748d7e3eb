package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/auth"
	"github.com/adamscao/skillguard/internal/certcache"
	"github.com/adamscao/skillguard/internal/config"
	"github.com/adamscao/skillguard/internal/logging"
	"github.com/adamscao/skillguard/internal/skillrequest"
	"github.com/adamscao/skillguard/internal/verifier"
	"github.com/adamscao/skillguard/pkg/certutil"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	cache      *certcache.Cache
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "skillguard administration tool",
	Long:  "Administrative tool for the skillguard certificate cache, offline verification and admin credentials",
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the certificate cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached certificates",
	RunE:  listCache,
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Evict the certificate cached for a URL",
	RunE:  evictCache,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Evict every cached certificate",
	RunE:  purgeCache,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a captured skill request",
	RunE:  verifyRequest,
}

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage the admin one-time code secret",
}

var totpGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a TOTP secret for admin.totp_secret",
	RunE:  generateTOTP,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the admin token",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print a bcrypt hash for admin.token_hash",
	RunE:  hashToken,
}

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random admin token",
	RunE:  generateToken,
}

var (
	evictURL      string
	bodyPath      string
	certURL       string
	signature     string
	skipTimestamp bool
	account       string
	token         string
)

func init() {
	// Root flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/skillguard/config.yaml", "Config file path")

	cacheEvictCmd.Flags().StringVar(&evictURL, "url", "", "Certificate URL (required)")
	cacheEvictCmd.MarkFlagRequired("url")

	verifyCmd.Flags().StringVar(&bodyPath, "body", "", "File holding the raw request body (required)")
	verifyCmd.Flags().StringVar(&certURL, "cert-url", "", "SignatureCertChainUrl header value (required)")
	verifyCmd.Flags().StringVar(&signature, "signature", "", "Signature header value (required)")
	verifyCmd.Flags().BoolVar(&skipTimestamp, "skip-timestamp", false, "Do not check the request timestamp")
	verifyCmd.MarkFlagRequired("body")
	verifyCmd.MarkFlagRequired("cert-url")
	verifyCmd.MarkFlagRequired("signature")

	totpGenerateCmd.Flags().StringVar(&account, "account", "admin", "Account name shown in the authenticator app")

	tokenHashCmd.Flags().StringVarP(&token, "token", "t", "", "Admin token (required)")
	tokenHashCmd.MarkFlagRequired("token")

	// Add commands
	cacheCmd.AddCommand(cacheListCmd, cacheEvictCmd, cachePurgeCmd)
	totpCmd.AddCommand(totpGenerateCmd)
	tokenCmd.AddCommand(tokenHashCmd, tokenGenerateCmd)
	rootCmd.AddCommand(cacheCmd, verifyCmd, totpCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCache() error {
	// Load configuration
	var err error
	cfg, err = config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := certcache.OpenStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open certificate cache: %w", err)
	}
	cache = certcache.New(store, logger, nil)

	return nil
}

func listCache(cmd *cobra.Command, args []string) error {
	if err := initCache(); err != nil {
		return err
	}
	defer cache.Close()

	keys, err := cache.Keys()
	if err != nil {
		return err
	}

	if len(keys) == 0 {
		fmt.Println("No cached certificates")
		return nil
	}

	fmt.Printf("\nBackend: %s\nTotal certificates: %d\n\n", cfg.Cache.Backend, len(keys))
	fmt.Printf("%-64s  %-52s  %s\n", "Key", "Fingerprint", "Not After")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, k := range keys {
		data, err := cache.Entry(k)
		if err != nil {
			fmt.Printf("%-64s  %-52s  %s\n", k, "(unreadable)", "-")
			continue
		}
		summary, err := certutil.Summarize(data)
		if err != nil {
			fmt.Printf("%-64s  %-52s  %s\n", k, "(not a certificate)", "-")
			continue
		}
		fmt.Printf("%-64s  %-52s  %s\n",
			k,
			summary.Fingerprint,
			summary.NotAfter.Format("2006-01-02 15:04:05"),
		)
	}

	return nil
}

func evictCache(cmd *cobra.Command, args []string) error {
	if err := initCache(); err != nil {
		return err
	}
	defer cache.Close()

	cache.Evict(evictURL)
	fmt.Printf("Evicted %s (key %s)\n", evictURL, certcache.Key(evictURL))
	return nil
}

func purgeCache(cmd *cobra.Command, args []string) error {
	if err := initCache(); err != nil {
		return err
	}
	defer cache.Close()

	n, err := cache.Purge()
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d certificate(s)\n", n)
	return nil
}

func verifyRequest(cmd *cobra.Command, args []string) error {
	if err := initCache(); err != nil {
		return err
	}
	defer cache.Close()

	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	header := http.Header{}
	header.Set(skillrequest.HeaderCertURL, certURL)
	header.Set(skillrequest.HeaderSignature, signature)

	mapped, err := skillrequest.Map(body, header)
	if err != nil {
		return err
	}
	req := mapped.Verify
	if skipTimestamp {
		req.CheckTimestamp = false
	}

	v := verifier.New(verifier.Options{
		Tolerance:       cfg.Verifier.TimestampTolerance,
		AuthorityDomain: cfg.Verifier.AuthorityDomain,
		Cache:           cache,
		Client:          verifier.NewStdClient(cfg.GetFetchTimeout()),
		Logger:          logger,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.GetFetchTimeout()+time.Second)
	defer cancel()

	if err := v.Validate(ctx, req); err != nil {
		fmt.Printf("rejected: %s\n", verifier.Reason(err))
		return err
	}

	fmt.Println("valid")
	return nil
}

func generateTOTP(cmd *cobra.Command, args []string) error {
	secret, url, err := auth.GenerateTOTPSecret(account)
	if err != nil {
		return err
	}

	fmt.Printf("TOTP Secret: %s\n", secret)
	fmt.Printf("TOTP URL:    %s\n", url)
	fmt.Printf("\nSet admin.totp_secret to the secret and scan the URL with a TOTP app\n")
	return nil
}

func hashToken(cmd *cobra.Command, args []string) error {
	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}

func generateToken(cmd *cobra.Command, args []string) error {
	t, err := auth.GenerateAdminToken()
	if err != nil {
		return err
	}

	fmt.Println(t)
	return nil
}
