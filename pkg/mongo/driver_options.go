package mongo

import (
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// driverOptions lists the pass-through driver options the manager
// understands. Keys follow the MongoDB URI option names.
type driverOptions struct {
	AppName                  string  `mapstructure:"appName"`
	ReplicaSet               string  `mapstructure:"replicaSet"`
	ConnectTimeoutMS         *int64  `mapstructure:"connectTimeoutMS"`
	ServerSelectionTimeoutMS *int64  `mapstructure:"serverSelectionTimeoutMS"`
	HeartbeatFrequencyMS     *int64  `mapstructure:"heartbeatFrequencyMS"`
	MaxConnIdleTimeMS        *int64  `mapstructure:"maxIdleTimeMS"`
	MaxPoolSize              *uint64 `mapstructure:"maxPoolSize"`
	MinPoolSize              *uint64 `mapstructure:"minPoolSize"`
	RetryWrites              *bool   `mapstructure:"retryWrites"`
	RetryReads               *bool   `mapstructure:"retryReads"`
	Direct                   *bool   `mapstructure:"directConnection"`

	Extra map[string]any `mapstructure:",remain"`
}

func decodeDriverOptions(raw map[string]any) (driverOptions, error) {
	var do driverOptions
	if len(raw) == 0 {
		return do, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &do,
	})
	if err != nil {
		return do, err
	}
	if err := decoder.Decode(raw); err != nil {
		return driverOptions{}, err
	}
	return do, nil
}

func (do driverOptions) unknownKeys() []string {
	keys := make([]string, 0, len(do.Extra))
	for k := range do.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (do driverOptions) apply(opts *options.ClientOptions) {
	if do.AppName != "" {
		opts.SetAppName(do.AppName)
	}
	if do.ReplicaSet != "" {
		opts.SetReplicaSet(do.ReplicaSet)
	}
	if do.ConnectTimeoutMS != nil {
		opts.SetConnectTimeout(millis(*do.ConnectTimeoutMS))
	}
	if do.ServerSelectionTimeoutMS != nil {
		opts.SetServerSelectionTimeout(millis(*do.ServerSelectionTimeoutMS))
	}
	if do.HeartbeatFrequencyMS != nil {
		opts.SetHeartbeatInterval(millis(*do.HeartbeatFrequencyMS))
	}
	if do.MaxConnIdleTimeMS != nil {
		opts.SetMaxConnIdleTime(millis(*do.MaxConnIdleTimeMS))
	}
	if do.MaxPoolSize != nil {
		opts.SetMaxPoolSize(*do.MaxPoolSize)
	}
	if do.MinPoolSize != nil {
		opts.SetMinPoolSize(*do.MinPoolSize)
	}
	if do.RetryWrites != nil {
		opts.SetRetryWrites(*do.RetryWrites)
	}
	if do.RetryReads != nil {
		opts.SetRetryReads(*do.RetryReads)
	}
	if do.Direct != nil {
		opts.SetDirect(*do.Direct)
	}
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
