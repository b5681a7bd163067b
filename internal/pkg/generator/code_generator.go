package generator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

func (g *CodeGenerator) GenerateShopperID() string {
	return uuid.NewString()
}

func (g *CodeGenerator) GenerateSessionID() string {
	return fmt.Sprintf("CHK-%s", shortID())
}

func (g *CodeGenerator) GenerateRequestID() string {
	return fmt.Sprintf("req-%s", shortID())
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
