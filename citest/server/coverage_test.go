package server_test

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jasmine-go/jasmine/citest/testutil"
	"github.com/jasmine-go/jasmine/pkg/types"
)

func withCoverage() map[string]string {
	files := make(map[string]string, len(testutil.ExampleProject)+1)
	for k, v := range testutil.ExampleProject {
		files[k] = v
	}
	files["spec/javascripts/support/jasmine.yml"] = `src_files:
  - public/javascripts/**/*.js
coverage:
  enabled: true
  encoding: utf-8
  skip_paths:
    - public/javascripts/vendor
  temp_dir: "build tmp"
`
	return files
}

var _ = Describe("Coverage", func() {
	var (
		ts     *testutil.TestServer
		client *testutil.TestClient
	)

	BeforeEach(func() {
		if binDir == "" {
			Skip("sh not available for the jscoverage stand-in")
		}
		var err error
		ts, err = testutil.StartTestServer(testutil.WithFiles(withCoverage()))
		Expect(err).NotTo(HaveOccurred())
		client = ts.Client()
	})

	AfterEach(func() {
		if ts != nil {
			ts.Stop()
		}
	})

	It("instruments once and reports", func() {
		sse := ts.SSEClient()
		Expect(sse.Connect(ctx, "/__events__")).To(Succeed())
		defer sse.Close()

		for i := 0; i < 3; i++ {
			resp, err := client.Get(ctx, "/__files__")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var manifest types.Manifest
			Expect(resp.JSON(&manifest)).To(Succeed())
			Expect(manifest.CoverageEnabled).To(BeTrue())
			Expect(manifest.JSFiles[0]).To(Equal("/public/javascripts/Player.js"))
		}

		_, err := sse.WaitForEvent("coverage.instrumented", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
		count := 0
		for _, e := range sse.GetAllEvents() {
			if e.Type == "coverage.instrumented" {
				count++
			}
		}
		Expect(count).To(Equal(1))

		args, err := ts.Project.Read("build tmp/javascripts/instrumented/.args")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Split(strings.TrimSpace(args), "\n")).To(Equal([]string{
			"--encoding=utf-8",
			"--no-instrument=public/javascripts/vendor",
			"build tmp/javascripts/uninstrumented",
			"build tmp/javascripts/instrumented",
		}))
		Expect(ts.Project.Exists("build tmp/javascripts/instrumented/public/javascripts/Song.js")).To(BeTrue())

		form := url.Values{"report": {`{"public/javascripts/Player.js":[null,1,0]}`}}
		resp, err := client.PostForm(ctx, "/__coverage__", form)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Headers.Get("Content-Type")).To(Equal("text/html"))
		Expect(resp.String()).To(Equal("<html><body>OK</body></html>"))

		report, err := ts.Project.Read("public/coverage/jscoverage.json")
		Expect(err).NotTo(HaveOccurred())
		Expect(report).To(HavePrefix("{\n  \"public/javascripts/Player.js\": [\n"))

		script, err := ts.Project.Read("public/coverage/jscoverage.js")
		Expect(err).NotTo(HaveOccurred())
		Expect(script).To(Equal("/* jscoverage.js */\n\njscoverage_isReport = true;\n"))

		_, err = sse.WaitForEvent("coverage.reported", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a malformed report", func() {
		resp, err := client.PostJSON(ctx, "/__coverage__", "{not json")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(ts.Project.Exists("public/coverage/jscoverage.json")).To(BeFalse())
	})
})
