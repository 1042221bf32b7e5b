package report_test

import (
	"bytes"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/simulation"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

var _ = Describe("Report", func() {
	var (
		used, idle *cache.Cache
		r          report.Report
	)

	BeforeEach(func() {
		var err error

		used, err = cache.New(cache.Config{
			Name: "L1", Size: 1024, LineSize: 64, Associativity: 4, Policy: cache.LRU,
		})
		Expect(err).NotTo(HaveOccurred())

		idle, err = cache.New(cache.Config{
			Name: "L2", Size: 4096, LineSize: 128, Associativity: 32,
		})
		Expect(err).NotTo(HaveOccurred())

		used.Access(0x0, cache.Read, 4)
		used.Access(0x0, cache.Write, 4)
		used.Access(0x0, cache.Read, 4)
		used.Access(0x40, cache.Read, 4)

		r = report.Build(simulation.Result{Records: 4, Skipped: 1, Complete: true},
			[]*cache.Cache{used, idle})
	})

	It("should collect every cache in order", func() {
		Expect(r.Records).To(Equal(uint64(4)))
		Expect(r.Skipped).To(Equal(uint64(1)))
		Expect(r.Caches).To(HaveLen(2))

		l1 := r.Caches[0]
		Expect(l1.Name).To(Equal("L1"))
		Expect(l1.Kind).To(Equal("4way"))
		Expect(l1.Sets).To(Equal(4))
		Expect(l1.Policy).To(Equal("lru"))
		Expect(l1.Hits).To(Equal(uint64(2)))
		Expect(l1.Misses).To(Equal(uint64(2)))
		Expect(l1.Reads).To(Equal(uint64(3)))
		Expect(l1.Writes).To(Equal(uint64(1)))
		Expect(l1.HitRate).NotTo(BeNil())
		Expect(*l1.HitRate).To(BeNumerically("~", 0.5))

		Expect(r.Caches[1].Kind).To(Equal("full"))
		Expect(r.Caches[1].HitRate).To(BeNil())
	})

	It("should label kinds like the configuration does", func() {
		Expect(report.KindLabel(cache.Config{Size: 1024, LineSize: 64, Associativity: 1})).
			To(Equal("direct"))
		Expect(report.KindLabel(cache.Config{Size: 1024, LineSize: 64, Associativity: 16})).
			To(Equal("full"))
		Expect(report.KindLabel(cache.Config{Size: 1024, LineSize: 64, Associativity: 8})).
			To(Equal("8way"))
	})

	It("should render text", func() {
		var buf bytes.Buffer
		Expect(report.Write(&buf, r, report.FormatText)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("Cache: L1"))
		Expect(out).To(ContainSubstring("Hit Rate:     50.00%"))
		Expect(out).To(ContainSubstring("Hit Rate:     N/A"))
		Expect(out).To(ContainSubstring("Skipped:  1"))
		Expect(out).NotTo(ContainSubstring("incomplete"))
	})

	It("should render JSON with a null hit rate for idle caches", func() {
		var buf bytes.Buffer
		Expect(report.Write(&buf, r, report.FormatJSON)).To(Succeed())

		var decoded map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())

		caches := decoded["caches"].([]any)
		Expect(caches[0].(map[string]any)["hit_rate"]).To(BeNumerically("~", 0.5))
		Expect(caches[1].(map[string]any)).To(HaveKeyWithValue("hit_rate", BeNil()))
		Expect(decoded["complete"]).To(BeTrue())
	})

	It("should render YAML", func() {
		var buf bytes.Buffer
		Expect(report.Write(&buf, r, report.FormatYAML)).To(Succeed())

		var decoded report.Report
		Expect(yaml.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded.Caches[0].Name).To(Equal("L1"))
		Expect(decoded.Caches[1].HitRate).To(BeNil())
	})

	It("should report write errors", func() {
		Expect(report.WriteText(failingWriter{}, r)).NotTo(Succeed())
		Expect(report.WriteJSON(failingWriter{}, r)).NotTo(Succeed())
	})

	DescribeTable("ParseFormat",
		func(in string, want report.Format, ok bool) {
			got, err := report.ParseFormat(in)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}

			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("default", "", report.FormatText, true),
		Entry("json", "JSON", report.FormatJSON, true),
		Entry("yml alias", "yml", report.FormatYAML, true),
		Entry("unknown", "xml", report.Format(""), false),
	)
})
