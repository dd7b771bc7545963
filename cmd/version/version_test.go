package versioncmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/version"
	"github.com/mbuckingham74/quilting-patterns-viewer/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	It("reports the linked build metadata", func() {
		Expect(versioncmder.Current()).To(Equal(versioncmder.Info{
			Version:   utils.Version,
			Sha:       utils.Sha,
			Buildtime: utils.Buildtime,
		}))
	})

	It("runs in both output modes", func() {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		cmd = versioncmder.NewVersionCmd()
		cmd.SetArgs([]string{"--json"})
		Expect(cmd.Execute()).To(Succeed())
	})

	It("rejects arguments", func() {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetArgs([]string{"extra"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
