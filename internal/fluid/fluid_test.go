package fluid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crnsim/internal/config"
	"crnsim/internal/fluid"
	"crnsim/internal/model"
	"crnsim/internal/solver"
	"crnsim/internal/symbolic"
)

func sirNetwork() *model.Network {
	net, err := model.Compile(&config.Document{
		Species:           []string{"x_s", "x_i", "x_r"},
		Parameters:        map[string]float64{"k_i": 1, "k_r": 0.05, "k_s": 0.01},
		Reactions:         []string{"x_s + x_i => x_i + x_i", "x_i => x_r", "x_r => x_s"},
		RateFunctions:     []string{"k_i * x_i * x_s / N", "k_r * x_i", "k_s * x_r"},
		InitialConditions: map[string]float64{"x_s": 80, "x_i": 20, "x_r": 0},
		SystemSize:        map[string]float64{"N": 100},
	})
	Expect(err).NotTo(HaveOccurred())
	return net
}

var _ = Describe("Deriver", func() {
	var net *model.Network
	var deriver *fluid.Deriver

	BeforeEach(func() {
		net = sirNetwork()
		deriver = fluid.NewDeriver(fluid.NewDensityRegistry(net.Variables), net.SystemSizeName)
	})

	It("derives one limit field per rate, in declaration order", func() {
		fields, err := deriver.Derive(net.ScaledRates)
		Expect(err).NotTo(HaveOccurred())
		Expect(fields).To(HaveLen(3))

		ds, di, dr := symbolic.S("d_x_s"), symbolic.S("d_x_i"), symbolic.S("d_x_r")
		Expect(fields[0].Equal(symbolic.MulOf(di, ds))).To(BeTrue(), "got %s", fields[0])
		Expect(fields[1].Equal(symbolic.MulOf(symbolic.F(1, 20), di))).To(BeTrue(), "got %s", fields[1])
		Expect(fields[2].Equal(symbolic.MulOf(symbolic.F(1, 100), dr))).To(BeTrue(), "got %s", fields[2])
	})

	It("passes a pure-constant rate through unchanged", func() {
		vars := net.Variables
		rates, err := model.NewRateExpressionCollection([]string{"4 - 6"}, vars, net.Parameters, net.SystemSizeName)
		Expect(err).NotTo(HaveOccurred())

		fields, err := deriver.Derive(rates)
		Expect(err).NotTo(HaveOccurred())
		Expect(fields[0].Equal(symbolic.N(-2))).To(BeTrue(), "got %s", fields[0])
	})

	It("rejects a rate with no finite limit", func() {
		rates, err := model.NewRateExpressionCollection([]string{"k_i * x_i * x_s"}, net.Variables, net.Parameters, net.SystemSizeName)
		Expect(err).NotTo(HaveOccurred())

		// Two species and no 1/N factor: the rescaled rate grows like N.
		_, err = deriver.Derive(rates)
		Expect(err).To(MatchError(fluid.ErrUnscalableRate))
	})

	It("is free of hidden state across repeated derivations", func() {
		a, err := deriver.Derive(net.ScaledRates)
		Expect(err).NotTo(HaveOccurred())
		b, err := deriver.Derive(net.ScaledRates)
		Expect(err).NotTo(HaveOccurred())
		for i := range a {
			Expect(a[i].Equal(b[i])).To(BeTrue())
			Expect(a[i].String()).To(Equal(b[i].String()))
		}
	})
})

var _ = Describe("Integrate", func() {
	var net *model.Network

	BeforeEach(func() {
		net = sirNetwork()
	})

	It("returns the time grid and a full density trajectory", func() {
		traj, err := fluid.IntegrateNetwork(net, 40)
		Expect(err).NotTo(HaveOccurred())
		Expect(traj.Times).To(HaveLen(1000))
		Expect(traj.Densities).To(HaveLen(1000))
		Expect(traj.Times[0]).To(Equal(0.0))
		Expect(traj.Times[999]).To(Equal(40.0))

		// Initial densities are populations over system size.
		Expect(traj.Densities[0]).To(Equal([]float64{0.8, 0.2, 0.0}))
	})

	It("integrates at awkward horizons whose grid spacing rounds badly", func() {
		// Horizons like these leave ulp-sized residuals before grid
		// points inside the adaptive solver; they must still succeed.
		for _, tMax := range []float64{7.439, 4.42722643274701, 11.013} {
			traj, err := fluid.IntegrateNetwork(net, tMax)
			Expect(err).NotTo(HaveOccurred(), "t_max=%v", tMax)
			Expect(traj.Times).To(HaveLen(1000))
		}
	})

	It("conserves total density for a closed network", func() {
		traj, err := fluid.IntegrateNetwork(net, 40)
		Expect(err).NotTo(HaveOccurred())
		for _, x := range traj.Densities {
			Expect(x[0] + x[1] + x[2]).To(BeNumerically("~", 1.0, 1e-6))
		}
	})

	It("matches the drift at time zero", func() {
		// ds/dt = -d_s*d_i + k_s*d_r = -0.16, di/dt = d_s*d_i - k_r*d_i,
		// dr/dt = k_r*d_i - k_s*d_r at (0.8, 0.2, 0).
		traj, err := fluid.IntegrateNetwork(net, 1)
		Expect(err).NotTo(HaveOccurred())

		dt := traj.Times[1] - traj.Times[0]
		approx := (traj.Densities[1][0] - traj.Densities[0][0]) / dt
		Expect(approx).To(BeNumerically("~", -0.16, 1e-3))
	})

	It("accepts an injected deterministic solver", func() {
		cfg := fluid.Config{
			UpdateMatrix:       net.Reactions.UpdateMatrix(),
			InitialPopulations: net.InitialPopulations,
			Rates:              net.ScaledRates,
			Variables:          net.Variables,
			SystemSizeName:     net.SystemSizeName,
			SystemSize:         net.SystemSize,
			TMax:               10,
			GridPoints:         100,
			Solver:             solver.NewRK4(4),
		}
		a, err := fluid.Integrate(cfg)
		Expect(err).NotTo(HaveOccurred())
		b, err := fluid.Integrate(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Densities).To(Equal(b.Densities), "integration must be bit-identical on identical inputs")
	})

	It("rejects inconsistent shapes", func() {
		cfg := fluid.Config{
			UpdateMatrix:       net.Reactions.UpdateMatrix()[:2],
			InitialPopulations: net.InitialPopulations,
			Rates:              net.ScaledRates,
			Variables:          net.Variables,
			SystemSizeName:     net.SystemSizeName,
			SystemSize:         net.SystemSize,
			TMax:               10,
		}
		_, err := fluid.Integrate(cfg)
		Expect(err).To(HaveOccurred())
	})
})
