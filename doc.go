/*
 * doc.go, part of gomatnet.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package matnet provides crystal/molecular structures and their encoding
//into periodic bond graphs and three-body (angular) interaction indexes,
//the geometric front end of the graph-network property and potential
//models in the nn subpackage. Distances and images are enumerated
//explicitly as (source, destination, lattice-translation) triples, which
//keeps the graphs easy to serialize, batch, and reproduce.
package matnet
