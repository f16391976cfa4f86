package distributor

import (
	"github.com/razyhost/razy/internal/distconfig"
	"github.com/razyhost/razy/internal/moduleinfo"
)

func newInfo(code string) moduleinfo.Info {
	return moduleinfo.Info{Code: code, ClassName: code, Alias: code, Version: "1.0.0"}
}

func distconfigEmpty() distconfig.Config {
	return distconfig.Config{}
}
