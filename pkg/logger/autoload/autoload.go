// Package autoload configures the global logger from the environment as an
// import side effect. Blank-import it from main.
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/tanpawarit/Aria-Voice-Assistant/pkg/logger"
)

func init() {
	conf := logx.Config{}
	if err := envconfig.Process("LOG", &conf); err != nil {
		conf = *logx.DefaultConfig
	}
	logx.Init(conf)
}
