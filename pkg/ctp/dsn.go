package ctp

import (
	"strings"

	"net/url"

	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// gateConfig is the assembled connection config of one gate: the account
// credentials shared by every front plus the bridge endpoints.
type gateConfig struct {
	BrokerID   string
	UserID     string
	InvestorID string
	Password   string
	AppID      string
	AuthCode   string
	PushAddr   string
	SubAddr    string
	PushKey    string
	SubKey     string
}

// parseDsn reads a space separated config string. Credentials come as
// key=value pairs, endpoints as ctp://host:port with an optional sub_port
// query (push port plus one when absent):
//
//	broker=9999 user=123 pass=secret app=client_1.0 auth=0000 ctp://gate:17001
func parseDsn(dsn string) ([]gateConfig, error) {

	configs := strings.Split(strings.Trim(dsn, " "), " ")

	var base gateConfig

	for _, conf := range configs {
		if strings.HasPrefix(conf, "broker=") {
			base.BrokerID = strings.TrimPrefix(conf, "broker=")
		}

		if strings.HasPrefix(conf, "user=") {
			base.UserID = strings.TrimPrefix(conf, "user=")
		}

		if strings.HasPrefix(conf, "investor=") {
			base.InvestorID = strings.TrimPrefix(conf, "investor=")
		}

		if strings.HasPrefix(conf, "pass=") {
			base.Password = strings.TrimPrefix(conf, "pass=")
		}

		if strings.HasPrefix(conf, "app=") {
			base.AppID = strings.TrimPrefix(conf, "app=")
		}

		if strings.HasPrefix(conf, "auth=") {
			base.AuthCode = strings.TrimPrefix(conf, "auth=")
		}

		if strings.HasPrefix(conf, "push_key=") {
			base.PushKey = strings.TrimPrefix(conf, "push_key=")
		}

		if strings.HasPrefix(conf, "sub_key=") {
			base.SubKey = strings.TrimPrefix(conf, "sub_key=")
		}
	}

	if base.InvestorID == "" {
		base.InvestorID = base.UserID
	}

	result := make([]gateConfig, 0)

	for _, conf := range configs {
		if strings.HasPrefix(conf, "ctp://") {
			u, err := url.Parse(conf)
			if err != nil {
				return nil, err
			}
			if u.Hostname() == "" {
				return nil, errors.New("host is empty")
			}

			if u.Port() == "" {
				return nil, errors.New("port is empty")
			}

			pushPort, err := strconv.Atoi(u.Port())
			if err != nil {
				return nil, errors.WithMessage(err, "invalid push port value")
			}
			subPort := pushPort + 1

			if u.Query().Get("sub_port") != "" {
				subPort, err = strconv.Atoi(u.Query().Get("sub_port"))
				if err != nil {
					return nil, errors.WithMessage(err, "invalid sub port value")
				}
			}

			gate := base
			gate.PushAddr = "tcp://" + u.Hostname() + ":" + strconv.Itoa(pushPort)
			gate.SubAddr = "tcp://" + u.Hostname() + ":" + strconv.Itoa(subPort)
			result = append(result, gate)
		}
	}

	if len(result) == 0 {
		return nil, errors.New("empty config")
	}

	return result, nil
}

type configMock struct {
	Connect   bool
	AutoTrade bool
}

func parseDsnMock(dsn string) (*configMock, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	cfg := &configMock{}

	if u.Query().Get("connect") == "true" {
		cfg.Connect = true
	}
	if u.Query().Get("autotrade") == "true" {
		cfg.AutoTrade = true
	}

	return cfg, nil
}

func createZmqTrader(logger *zap.Logger, cfg gateConfig) (Trader, error) {
	front, err := newZmqFrontConnection(cfg.PushAddr, cfg.SubAddr, cfg.PushKey, logger)
	if err != nil {
		return nil, errors.WithMessage(err, "fail create front zmq connection")
	}
	return newCtpTrader(logger, front, cfg), nil
}

// NewTrader builds a trading gateway from a dsn. A mock:// dsn yields an
// in-process gate for tests and dry runs; a config with several ctp://
// endpoints connects them all and trades through whichever is ready.
func NewTrader(logger *zap.Logger, dsn string) (Trader, error) {

	if strings.HasPrefix(dsn, "mock://") {
		cfg, err := parseDsnMock(dsn)
		if err != nil {
			return nil, errors.WithMessage(err, "fail parse mock dsn")
		}
		front := NewMockFront(logger, true, cfg.AutoTrade)
		trader := newCtpTrader(logger, front, gateConfig{BrokerID: "9999", UserID: "mock", InvestorID: "mock"})
		if cfg.Connect {
			front.Connect()
		}
		return trader, nil
	}

	if strings.HasPrefix(dsn, "broker=") || strings.Contains(dsn, "ctp://") {
		cfg, err := parseDsn(dsn)
		if err != nil {
			return nil, errors.WithMessage(err, "fail parse ctp dsn")
		}
		if len(cfg) == 1 {
			return createZmqTrader(logger, cfg[0])
		}
		gates := make([]Trader, 0, len(cfg))
		for _, gateConf := range cfg {
			gate, err := createZmqTrader(logger, gateConf)
			if err != nil {
				return nil, errors.WithMessage(err, "fail create gate")
			}
			gates = append(gates, gate)
		}
		return newClusterTrader(logger, gates), nil
	}

	return nil, errors.New("config not supported")
}

// NewMarketData builds a quote gateway from a dsn of the same shape.
func NewMarketData(logger *zap.Logger, dsn string) (MarketData, error) {

	if strings.HasPrefix(dsn, "mock://") {
		cfg, err := parseDsnMock(dsn)
		if err != nil {
			return nil, errors.WithMessage(err, "fail parse mock dsn")
		}
		front := NewMockFront(logger, true, false)
		md := newMdClient(logger, front, gateConfig{BrokerID: "9999", UserID: "mock", InvestorID: "mock"})
		if cfg.Connect {
			front.Connect()
		}
		return md, nil
	}

	if strings.HasPrefix(dsn, "broker=") || strings.Contains(dsn, "ctp://") {
		cfg, err := parseDsn(dsn)
		if err != nil {
			return nil, errors.WithMessage(err, "fail parse ctp dsn")
		}
		front, err := newZmqFrontConnection(cfg[0].PushAddr, cfg[0].SubAddr, cfg[0].PushKey, logger)
		if err != nil {
			return nil, errors.WithMessage(err, "fail create front zmq connection")
		}
		return newMdClient(logger, front, cfg[0]), nil
	}

	return nil, errors.New("config not supported")
}
