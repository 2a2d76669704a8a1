package server_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jasmine-go/jasmine/citest/testutil"
	"github.com/jasmine-go/jasmine/pkg/types"
)

var _ = Describe("Files", func() {
	var (
		ts     *testutil.TestServer
		client *testutil.TestClient
	)

	BeforeEach(func() {
		var err error
		ts, err = testutil.StartTestServer(testutil.WithWatch())
		Expect(err).NotTo(HaveOccurred())
		client = ts.Client()
	})

	AfterEach(func() {
		ts.Stop()
	})

	Describe("GET /__files__", func() {
		It("lists sources, helpers and specs in order", func() {
			resp, err := client.Get(ctx, "/__files__")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var manifest types.Manifest
			Expect(resp.JSON(&manifest)).To(Succeed())
			Expect(manifest.JSFiles).To(Equal([]string{
				"/public/javascripts/Player.js",
				"/public/javascripts/Song.js",
				"/__spec__/helpers/SpecHelper.js",
				"/__spec__/PlayerSpec.js",
				"/__spec__/SongSpec.js",
			}))
			Expect(manifest.Stylesheets).To(Equal([]string{"/stylesheets/player.css"}))
			Expect(manifest.CoverageEnabled).To(BeFalse())
		})

		It("applies a spec filter", func() {
			resp, err := client.Get(ctx, "/__files__", testutil.WithQuery(map[string]string{"spec_filter": "PlayerSpec.js"}))
			Expect(err).NotTo(HaveOccurred())

			var manifest types.Manifest
			Expect(resp.JSON(&manifest)).To(Succeed())
			Expect(manifest.JSFiles).To(HaveLen(4))
			Expect(manifest.JSFiles[3]).To(Equal("/__spec__/PlayerSpec.js"))
		})
	})

	Describe("GET /__spec__/*", func() {
		It("serves spec files", func() {
			resp, err := client.Get(ctx, "/__spec__/helpers/SpecHelper.js")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.String()).To(Equal("beforeEach(function() {});\n"))
		})
	})

	Describe("unknown paths", func() {
		It("cascades", func() {
			resp, err := client.Get(ctx, "/index.html")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(resp.Headers.Get("X-Cascade")).To(Equal("pass"))
			Expect(resp.String()).To(Equal("Error..."))
		})
	})

	Describe("watching", func() {
		It("streams new spec files", func() {
			sse := ts.SSEClient()
			Expect(sse.Connect(ctx, "/__events__?type=files.changed")).To(Succeed())
			defer sse.Close()

			Expect(ts.Project.Write("spec/javascripts/AlbumSpec.js", "describe('Album');")).To(Succeed())

			evt, err := sse.WaitForEvent("files.changed", 5*time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(evt.Properties)).To(ContainSubstring("AlbumSpec.js"))

			resp, err := client.Get(ctx, "/__files__")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.String()).To(ContainSubstring("/__spec__/AlbumSpec.js"))
		})

		It("reloads an edited jasmine.yml", func() {
			Expect(ts.Project.Write("spec/javascripts/support/jasmine.yml", "src_files: []\n")).To(Succeed())

			Eventually(func() string {
				resp, err := client.Get(ctx, "/__files__")
				if err != nil {
					return ""
				}
				return resp.String()
			}, 5*time.Second, 50*time.Millisecond).ShouldNot(ContainSubstring("Player.js\""))
		})
	})
})
