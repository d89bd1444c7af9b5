package github

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"

	"github.com/sevigo/dollar-ci/internal/config"
)

// AppInfo summarises what GitHub knows about the configured App.
type AppInfo struct {
	ID            int64
	Slug          string
	Name          string
	Owner         string
	Installations []InstallationInfo
}

// InstallationInfo describes one installation of the App.
type InstallationInfo struct {
	ID      int64
	Account string
	Target  string
}

// DescribeApp authenticates with ghinstallation's stock App transport and
// fetches the App and its installations. It uses GitHub's reference JWT
// rather than the Issuer, so it tells key or App ID problems apart from
// problems with the custom assertion claims.
func DescribeApp(ctx context.Context, cfg config.GitHubConfig, transport http.RoundTripper) (*AppInfo, error) {
	if transport == nil {
		transport = http.DefaultTransport
	}
	key, err := privateKeyBytes(cfg)
	if err != nil {
		return nil, err
	}

	appTransport, err := ghinstallation.NewAppsTransport(transport, cfg.AppID, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyLoad, err)
	}

	client, err := newAPIClient(appTransport, apiConfig{baseURL: cfg.APIBaseURL, userAgent: cfg.UserAgent})
	if err != nil {
		return nil, err
	}

	app, resp, err := client.Apps.Get(ctx, "")
	if err = classify("get app", resp, err); err != nil {
		return nil, err
	}
	info := &AppInfo{
		ID:    app.GetID(),
		Slug:  app.GetSlug(),
		Name:  app.GetName(),
		Owner: app.GetOwner().GetLogin(),
	}

	opts := &github.ListOptions{PerPage: 100}
	for {
		installs, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err = classify("list installations", resp, err); err != nil {
			return nil, err
		}
		for _, inst := range installs {
			info.Installations = append(info.Installations, InstallationInfo{
				ID:      inst.GetID(),
				Account: inst.GetAccount().GetLogin(),
				Target:  inst.GetTargetType(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return info, nil
}

func privateKeyBytes(cfg config.GitHubConfig) ([]byte, error) {
	if cfg.PrivateKey != "" {
		return []byte(cfg.PrivateKey), nil
	}
	key, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrKeyLoad, cfg.PrivateKeyPath, err)
	}
	return key, nil
}
