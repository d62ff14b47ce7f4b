package common

import (
	"github.com/bytedance/sonic"
)

var SonicCfg sonic.API

func init() {
	SonicCfg = sonic.Config{
		CopyString:           true,
		NoQuoteTextMarshaler: true,
		UseInt64:             false,
	}.Froze()
}
