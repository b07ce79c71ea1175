package hand

const rule = "====================================="

// PrintBanner writes the startup summary to the console.
func (c *Controller) PrintBanner() {
	c.println(rule)
	c.println("  ADAPTIVE GRIP")
	c.println(rule)
	c.printf("  Threshold : %.4f\n", c.detector.Threshold())
	c.printf("  FSR contact: %d\n", c.cfg.Grip.Contact)
	c.printf("  Servo range: %d to %d deg\n", c.cfg.Grip.OpenAngle, c.cfg.Grip.ClosedAngle)
	c.printHelp()
	c.println(rule)
	c.println("")
	c.println("  Ready! Flex to close, relax to open.")
}
