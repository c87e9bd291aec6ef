package linker

import (
	"os"

	"github.com/objectx/lld/pkg/utils"
)

// WriteOut dumps the assembled image to the configured output path.
func WriteOut(ctx *Context) {
	err := os.WriteFile(ctx.Args.Output, ctx.Buf, 0755)
	utils.MustNo(err)
}
