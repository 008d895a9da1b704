package main

import (
	"context"
	"eventhub-backend/config"
	c "eventhub-backend/context"
	"eventhub-backend/router"
	"flag"
	l "log"

	"github.com/codegangsta/negroni"
	"github.com/spf13/viper"
)

const defaultCorrelationID = "00000000.00000000"

var ctx context.Context

func init() {
	ctx = c.SetContextWithValue(context.Background(), c.ContextKeyCorrelationID, defaultCorrelationID)
}

func main() {
	cfgPath := flag.String("CONFIG_PATH", "./config.yaml", "Path to config file")
	flag.Parse()

	viper.SetConfigFile(*cfgPath)

	if err := viper.ReadInConfig(); err != nil {
		l.Fatalln("error reading config")
	}

	muxRouter := router.Router(ctx)

	n := negroni.New()
	n.UseHandler(muxRouter)
	n.Run(viper.GetString(config.Port))
}
