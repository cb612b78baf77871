package dispatch

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/tutorstack/tutorctl/internal/util"
)

// ComposeInfo summarizes the services declared in the stack's compose file.
type ComposeInfo struct {
	Services []ComposeService
}

// ComposeService is one declared service with its activation profiles.
type ComposeService struct {
	Name     string
	Image    string
	Profiles []string
}

// HasService reports whether a service with the given name is declared.
func (i ComposeInfo) HasService(name string) bool {
	for _, svc := range i.Services {
		if svc.Name == name {
			return true
		}
	}
	return false
}

// ProfileServices returns the names of services activated by profile.
func (i ComposeInfo) ProfileServices(profile string) []string {
	var names []string
	for _, svc := range i.Services {
		for _, p := range svc.Profiles {
			if p == profile {
				names = append(names, svc.Name)
				break
			}
		}
	}
	return names
}

// DefaultServices returns the names of services active without any profile.
func (i ComposeInfo) DefaultServices() []string {
	var names []string
	for _, svc := range i.Services {
		if len(svc.Profiles) == 0 {
			names = append(names, svc.Name)
		}
	}
	return names
}

// Summary renders one entry per service with its image and, when the service
// is gated behind profiles, the profile names.
func (i ComposeInfo) Summary() []string {
	var entries []string
	for _, svc := range i.Services {
		entry := svc.Name
		if svc.Image != "" {
			entry += " (" + svc.Image + ")"
		}
		if len(svc.Profiles) > 0 {
			entry += " [profile " + strings.Join(svc.Profiles, ",") + "]"
		}
		entries = append(entries, entry)
	}
	return entries
}

// InspectCompose parses the compose file so a broken stack definition is
// caught before the engine is invoked. compose-go handles the full dialect;
// a raw YAML scan covers files it rejects.
func InspectCompose(path string) (ComposeInfo, error) {
	opts, err := cli.NewProjectOptions(
		[]string{path},
		cli.WithDotEnv,
		cli.WithInterpolation(false),
	)
	if err != nil {
		return ComposeInfo{}, fmt.Errorf("project options: %w", err)
	}

	project, err := cli.ProjectFromOptions(context.Background(), opts)
	if err != nil {
		return inspectFallback(path)
	}

	info := ComposeInfo{}
	for _, svc := range project.Services {
		info.Services = append(info.Services, ComposeService{
			Name:     svc.Name,
			Image:    svc.Image,
			Profiles: svc.Profiles,
		})
	}
	sortServices(info.Services)
	return info, nil
}

// inspectFallback scans the raw YAML when compose-go rejects the file.
func inspectFallback(path string) (ComposeInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ComposeInfo{}, err
	}

	var raw map[string]interface{}
	if err := yamlv3.Unmarshal([]byte(util.MaskInterpolation(string(data))), &raw); err != nil {
		return ComposeInfo{}, fmt.Errorf("yaml parse: %w", err)
	}

	servicesMap, ok := raw["services"].(map[string]interface{})
	if !ok {
		return ComposeInfo{}, nil
	}

	info := ComposeInfo{}
	for name, svcData := range servicesMap {
		svcMap, ok := svcData.(map[string]interface{})
		if !ok {
			continue
		}
		info.Services = append(info.Services, ComposeService{
			Name:     name,
			Image:    toString(svcMap["image"]),
			Profiles: toStringSlice(svcMap["profiles"]),
		})
	}
	sortServices(info.Services)
	return info, nil
}

func sortServices(svcs []ComposeService) {
	sort.Slice(svcs, func(a, b int) bool { return svcs[a].Name < svcs[b].Name })
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
