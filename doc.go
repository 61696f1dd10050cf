/*
Package axisim is a cycle based co-simulation harness for stream devices.

A simulation (Sim) owns a step counter shared by any number of clocks
(ClockGen). Every step, the harness drives the clock pins, latches the inputs
of every peripheral, evaluates the device under test and then evaluates every
peripheral. Since all inputs are latched before anything is evaluated, no
peripheral ever sees a value written by another one during the same step.

Peripherals connect to the device under test through Input and Output
adapters. An Input is a latched view of a signal, registered with the
peripheral's Latches set. An Output writes to an optional signal. Absent
signals read as a configured default and silently discard writes.

Packets flow in and out of peripherals through the PacketSource and
PacketSink interfaces. Package axis provides AXI4-Stream peripherals and
package eth Ethernet MAC framing and GMII/RMII peripherals.

Protocol violations detected by a peripheral abort the simulation with an
*Error whose Kind identifies the failure.
*/
package axisim
