package backends

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/pkg/backends/ganglia"
	"github.com/atlassian/gmetricd/pkg/backends/null"
	"github.com/atlassian/gmetricd/pkg/backends/stdout"
)

// All known backends.
var backends = map[string]gmetricd.BackendFactory{
	ganglia.BackendName: ganglia.NewClientFromViper,
	null.BackendName:    null.NewClientFromViper,
	stdout.BackendName:  stdout.NewClientFromViper,
}

// GetBackend creates an instance of the named backend, or nil if
// the name is not known. The error return is only used if the named backend
// was known but failed to initialize.
func GetBackend(name string, v *viper.Viper, logger logrus.FieldLogger) (gmetricd.Backend, error) {
	f, found := backends[name]
	if !found {
		return nil, nil
	}
	return f(v, logger.WithField("backend", name))
}

// InitBackend creates an instance of the named backend.
func InitBackend(name string, v *viper.Viper, logger logrus.FieldLogger) (gmetricd.Backend, error) {
	if name == "" {
		logger.Info("No backend specified")
		return nil, nil
	}

	backend, err := GetBackend(name, v, logger)
	if err != nil {
		return nil, fmt.Errorf("could not init backend %q: %v", name, err)
	}
	if backend == nil {
		return nil, fmt.Errorf("unknown backend %q", name)
	}
	logger.Infof("Initialised backend %q", name)

	return backend, nil
}
