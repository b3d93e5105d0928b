package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRFISys(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RFISys Suite")
}
