package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/domain"
	"github.com/razyhost/razy/internal/siteconfig"
	"github.com/razyhost/razy/modules"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Walk SiteRegistry -> Domain -> Distributor -> Module in a fuzzy-filterable TUI",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		entries, err := buildInspectEntries()
		if err != nil {
			return err
		}
		p := tea.NewProgram(newInspectModel(entries))
		_, err = p.Run()
		return err
	},
}

// inspectEntry is one flattened, filterable row of the
// domain/distributor/module tree. It implements list.Item so bubbles/list
// can render and fuzzy-filter it directly.
type inspectEntry struct {
	label  string
	detail string
}

func (e inspectEntry) Title() string       { return e.label }
func (e inspectEntry) Description() string { return e.detail }
func (e inspectEntry) FilterValue() string { return e.label }

func buildInspectEntries() ([]inspectEntry, error) {
	sitesDirFS := os.DirFS(flagSitesRootPath())
	sites, err := siteconfig.Load(os.DirFS(flagRoot), flagSiteConfigPath, sitesDirFS, nil)
	if err != nil {
		return nil, err
	}
	registry := distributor.NewControllerRegistry()
	if err := modules.Register(registry); err != nil {
		return nil, err
	}

	var entries []inspectEntry
	domainKeys := make([]string, 0, len(sites.Mounts))
	for k := range sites.Mounts {
		domainKeys = append(domainKeys, k)
	}
	sort.Strings(domainKeys)

	for _, key := range domainKeys {
		mounts := sites.Mounts[key]
		d := domain.New(key, mounts, sitesDirFS, registry, nil)
		for _, mount := range mounts {
			entries = append(entries, inspectEntry{
				label:  fmt.Sprintf("%s %s", key, mount.URLPath),
				detail: fmt.Sprintf("distributor %s", mount.Identifier),
			})
			dist, err := d.MatchQuery(mount.URLPath)
			if err != nil || dist == nil {
				continue
			}
			for _, m := range dist.LoadedModules() {
				entries = append(entries, inspectEntry{
					label:  fmt.Sprintf("%s %s %s", key, mount.URLPath, m.Info.Code),
					detail: fmt.Sprintf("module %s@%s (status %s)", m.Info.Code, m.Info.Version, m.Status),
				})
			}
		}
	}
	return entries, nil
}

func flagSitesRootPath() string {
	if flagRoot == "." || flagRoot == "" {
		return flagSitesRoot
	}
	return flagRoot + string(os.PathSeparator) + flagSitesRoot
}

var inspectBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

type inspectModel struct {
	list list.Model
}

func newInspectModel(entries []inspectEntry) inspectModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "razy inspect"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	return inspectModel{list: l}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if !m.list.SettingFilter() {
				return m, tea.Quit
			}
		case tea.KeyEnter:
			if !m.list.SettingFilter() {
				return m, tea.Quit
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	return inspectBorder.Render(m.list.View())
}
